package models

import "strconv"

// RecordFields lists the lookup record fields in output order.
var RecordFields = []string{
	"PhoneNumber",
	"ReportDate",
	"LineType",
	"PhoneCompany",
	"PhoneLocation",
	"FakeNumber",
	"FakeNumberReason",
	"ErrorCode",
	"ErrorDescription",
}

// ValidationRecord is the basic-info result of a phone lookup.
type ValidationRecord struct {
	PhoneNumber      string `json:"PhoneNumber"`
	ReportDate       string `json:"ReportDate"`
	LineType         string `json:"LineType"`
	PhoneCompany     string `json:"PhoneCompany"`
	PhoneLocation    string `json:"PhoneLocation"`
	FakeNumber       string `json:"FakeNumber"`
	FakeNumberReason string `json:"FakeNumberReason"`
	ErrorCode        string `json:"ErrorCode"`
	ErrorDescription string `json:"ErrorDescription"`
}

// IsEmpty is true for the zero record returned when there was nothing to look up.
func (r ValidationRecord) IsEmpty() bool {
	return r == ValidationRecord{}
}

// HasError reports whether the service flagged the lookup.
func (r ValidationRecord) HasError() bool {
	return r.ErrorCode != ""
}

// Values returns the fields in RecordFields order.
func (r ValidationRecord) Values() []string {
	return []string{
		r.PhoneNumber,
		r.ReportDate,
		r.LineType,
		r.PhoneCompany,
		r.PhoneLocation,
		r.FakeNumber,
		r.FakeNumberReason,
		r.ErrorCode,
		r.ErrorDescription,
	}
}

// RecordColumns returns RecordFields suffixed with the slot ordinal, e.g. "LineType2".
func RecordColumns(ordinal int) []string {
	suffix := strconv.Itoa(ordinal)
	cols := make([]string, len(RecordFields))

	for i, f := range RecordFields {
		cols[i] = f + suffix
	}

	return cols
}
