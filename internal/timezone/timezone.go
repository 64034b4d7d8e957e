// Package timezone maps US state names to their UTC offsets.
package timezone

import (
	"sort"
	"strconv"
	"strings"
)

// offsets holds standard-time UTC offsets. States split across zones list every zone.
var offsets = map[string][]int{
	"Alabama":              {-6},
	"Alaska":               {-9, -10},
	"Arizona":              {-7},
	"Arkansas":             {-6},
	"California":           {-8},
	"Colorado":             {-7},
	"Connecticut":          {-5},
	"Delaware":             {-5},
	"District of Columbia": {-5},
	"Florida":              {-5, -6},
	"Georgia":              {-5},
	"Hawaii":               {-10},
	"Idaho":                {-7, -8},
	"Illinois":             {-6},
	"Indiana":              {-5, -6},
	"Iowa":                 {-6},
	"Kansas":               {-6, -7},
	"Kentucky":             {-5, -6},
	"Louisiana":            {-6},
	"Maine":                {-5},
	"Maryland":             {-5},
	"Massachusetts":        {-5},
	"Michigan":             {-5, -6},
	"Minnesota":            {-6},
	"Mississippi":          {-6},
	"Missouri":             {-6},
	"Montana":              {-7},
	"Nebraska":             {-6, -7},
	"Nevada":               {-8, -7},
	"New Hampshire":        {-5},
	"New Jersey":           {-5},
	"New Mexico":           {-7},
	"New York":             {-5},
	"North Carolina":       {-5},
	"North Dakota":         {-6, -7},
	"Ohio":                 {-5},
	"Oklahoma":             {-6},
	"Oregon":               {-8, -7},
	"Pennsylvania":         {-5},
	"Rhode Island":         {-5},
	"South Carolina":       {-5},
	"South Dakota":         {-6, -7},
	"Tennessee":            {-5, -6},
	"Texas":                {-6, -7},
	"Utah":                 {-7},
	"Vermont":              {-5},
	"Virginia":             {-5},
	"Washington":           {-8},
	"West Virginia":        {-5},
	"Wisconsin":            {-6},
	"Wyoming":              {-7},
}

var abbreviations = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

var lowerNames = func() map[string]string {
	m := make(map[string]string, len(offsets))
	for name := range offsets {
		m[strings.ToLower(name)] = name
	}

	return m
}()

// Lookup returns the offsets for a state name or USPS code.
func Lookup(state string) ([]int, bool) {
	s := strings.TrimSpace(state)
	if s == "" {
		return nil, false
	}

	if name, ok := abbreviations[strings.ToUpper(s)]; ok {
		s = name
	} else if name, ok := lowerNames[strings.ToLower(s)]; ok {
		s = name
	}

	tz, ok := offsets[s]

	return tz, ok
}

// Derive returns the distinct offsets of every known state, sorted descending (most negative last).
func Derive(states ...string) []int {
	seen := make(map[int]bool)

	var out []int

	for _, state := range states {
		tz, ok := Lookup(state)
		if !ok {
			continue
		}

		for _, o := range tz {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(out)))

	return out
}

// Format renders offsets as "-5, -8". No offsets render as "".
func Format(offsets []int) string {
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = strconv.Itoa(o)
	}

	return strings.Join(parts, ", ")
}

// For derives and formats in one step.
func For(states ...string) string {
	return Format(Derive(states...))
}
