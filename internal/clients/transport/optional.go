package transport

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for program dates.
const DateLayout = "2006-01-02"

// OptionalString distinguishes an omitted field from an explicit null or
// empty string in PATCH bodies. Null and "" both clear the column.
type OptionalString struct {
	Value *string
	Set   bool
}

func (o OptionalString) IsZero() bool {
	return !o.Set
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	o.Value = &raw
	return nil
}

// OptionalInt distinguishes an omitted field from an explicit null.
type OptionalInt struct {
	Value *int
	Set   bool
}

func (o OptionalInt) IsZero() bool {
	return !o.Set
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Value = &raw
	return nil
}

// OptionalDate distinguishes an omitted date from an explicit null. Dates
// travel as YYYY-MM-DD strings.
type OptionalDate struct {
	Value *time.Time
	Set   bool
}

func (o OptionalDate) IsZero() bool {
	return !o.Set
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return err
	}

	o.Value = &parsed
	return nil
}
