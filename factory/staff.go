package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// StaffJSON is a directory record as exported by the staff module and the
// device importers. PayRate is kept raw: some sources send "25.50", others 25.5.
type StaffJSON struct {
	ID           string          `json:"id" validate:"required,max=128"`
	Slot         int             `json:"slot" validate:"min=0"`
	EmployeeName string          `json:"employeeName,omitempty"`
	Name         string          `json:"name,omitempty"`
	EmpName      string          `json:"empName,omitempty"`
	PayRate      json.RawMessage `json:"payRate,omitempty"`
	ShiftID      string          `json:"shiftId,omitempty" validate:"max=128"`
	Active       *bool           `json:"active,omitempty"`
}

// DisplayName picks the first non-empty of the name spellings.
func (s StaffJSON) DisplayName() string {
	for _, n := range []string{s.EmployeeName, s.Name, s.EmpName} {
		if strings.TrimSpace(n) != "" {
			return strings.TrimSpace(n)
		}
	}
	return ""
}

// StaffFactory converts staff records to attendance.Employee.
type StaffFactory struct {
	validate *validator.Validate
}

func NewStaffFactory() *StaffFactory {
	return &StaffFactory{validate: validator.New()}
}

// ParseStaff parses a JSON array of staff records.
func (f *StaffFactory) ParseStaff(data []byte) ([]attendance.Employee, error) {
	var records []StaffJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse staff JSON: %v", generic.ErrValidation, err)
	}

	employees := make([]attendance.Employee, 0, len(records))
	for _, r := range records {
		emp, err := f.FromJSON(r)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

// FromJSON converts one record. A missing pay rate is 0; an unparseable or
// negative one is a PayRateError.
func (f *StaffFactory) FromJSON(s StaffJSON) (attendance.Employee, error) {
	if err := f.validate.Struct(s); err != nil {
		return attendance.Employee{}, fmt.Errorf("%w: staff record %q: %v", generic.ErrValidation, s.ID, err)
	}

	rate, err := ParsePayRate(attendance.EmployeeID(s.ID), s.PayRate)
	if err != nil {
		return attendance.Employee{}, err
	}

	return attendance.Employee{
		ID:      attendance.EmployeeID(s.ID),
		Slot:    s.Slot,
		Name:    s.DisplayName(),
		PayRate: rate,
		ShiftID: attendance.ShiftID(strings.TrimSpace(s.ShiftID)),
		Active:  s.Active == nil || *s.Active,
	}, nil
}

// ParsePayRate accepts a JSON number, a numeric string, null or nothing.
func ParsePayRate(id attendance.EmployeeID, raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, nil
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return decimal.Zero, &attendance.PayRateError{EmployeeID: id, Raw: string(trimmed)}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, nil
		}
	}

	rate, err := decimal.NewFromString(text)
	if err != nil || rate.IsNegative() {
		return decimal.Zero, &attendance.PayRateError{EmployeeID: id, Raw: text}
	}
	return rate, nil
}
