// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DepartmentOthers selects the free-text department.
const DepartmentOthers = "Others"

// Departments offered by the profile form.
var Departments = []string{"CSE Core", "AI", "DS", "Cybersec", "ECE", "ECM", "VLSI", "IT", DepartmentOthers}

// MaxCustomDepartmentLength caps the free-text department.
const MaxCustomDepartmentLength = 25

// Profile is a document in the users collection, keyed by the identity uid.
type Profile struct {
	UID          string `json:"uid" validate:"required"`
	AuthEmail    string `json:"authEmail"`
	Name         string `json:"name"`
	RegNo        string `json:"regNo" validate:"required,len=9,numeric"`
	StudentEmail string `json:"studentEmail" validate:"required"`
	Year         int    `json:"year" validate:"min=1,max=4"`
	Department   string `json:"department" validate:"required"`
	DOB          string `json:"dob" validate:"required"`
	Phone        string `json:"phone" validate:"required,numeric"`
	Townhall     Flag   `json:"townhall"`
	CreatedAt    string `json:"createdAt"`
}

// Validate implements Record.
func (p Profile) Validate() error {
	return validateRecord("users.validate", p)
}

// Privileged reports whether the profile grants access to the admin console.
func (p Profile) Privileged() bool {
	return bool(p.Townhall)
}

// ProfileForm is what a newly signed-in member submits.
type ProfileForm struct {
	// Name overrides the identity's display name when set.
	Name             string `json:"name,omitempty"`
	RegNo            string `json:"regNo"`
	StudentEmail     string `json:"studentEmail"`
	Year             int    `json:"year"`
	DOB              string `json:"dob"`
	Phone            string `json:"phone"`
	Department       string `json:"department"`
	CustomDepartment string `json:"customDepartment"`
}

// Normalize trims every text field.
func (f ProfileForm) Normalize() ProfileForm {
	f.Name = strings.TrimSpace(f.Name)
	f.RegNo = strings.TrimSpace(f.RegNo)
	f.StudentEmail = strings.TrimSpace(f.StudentEmail)
	f.DOB = strings.TrimSpace(f.DOB)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Department = strings.TrimSpace(f.Department)
	f.CustomDepartment = strings.TrimSpace(f.CustomDepartment)
	return f
}

// EffectiveDepartment is the department stored on the profile.
func (f ProfileForm) EffectiveDepartment() string {
	if f.Department == DepartmentOthers {
		return f.CustomDepartment
	}
	return f.Department
}

var (
	regNoPattern        = regexp.MustCompile(`^\d{9}$`)
	studentEmailPattern = regexp.MustCompile(`^[a-zA-Z]+\.mitblr20\d{2}@learner\.manipal\.edu$`)
	phonePattern        = regexp.MustCompile(`^\d{10,}$`)
)

// admissionWindow opens a registration-number prefix from the start of the
// given month.
var admissionWindow = []struct {
	prefix string
	opens  time.Time
}{
	{"26", time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)},
	{"27", time.Date(2027, time.May, 1, 0, 0, 0, 0, time.UTC)},
}

// AllowedYearPrefixes returns the registration-number prefixes accepted at now.
func AllowedYearPrefixes(now time.Time) []string {
	prefixes := []string{"22", "23", "24", "25"}
	for _, w := range admissionWindow {
		// Compare calendar months so a local "May 1st" opens the window.
		if now.Year() > w.opens.Year() || (now.Year() == w.opens.Year() && now.Month() >= w.opens.Month()) {
			prefixes = append(prefixes, w.prefix)
		}
	}
	return prefixes
}

// ValidateRegNo checks the 9-digit format and the admission-year prefix.
func ValidateRegNo(regNo string, now time.Time) error {
	if !regNoPattern.MatchString(regNo) {
		return fieldError("regNo", "Registration Number must be 9 digits.")
	}
	allowed := AllowedYearPrefixes(now)
	if !slices.Contains(allowed, regNo[:2]) {
		return fieldError("regNo", "Invalid Year Prefix. Allowed: "+strings.Join(allowed, ", "))
	}
	return nil
}

// ValidStudentEmail reports whether email has the institution format.
func ValidStudentEmail(email string) bool {
	return studentEmailPattern.MatchString(email)
}

// Validate applies the profile rules in order; the first failure wins.
func (f ProfileForm) Validate(now time.Time) error {
	if err := ValidateRegNo(f.RegNo, now); err != nil {
		return err
	}
	if !ValidStudentEmail(f.StudentEmail) {
		return fieldError("studentEmail", "Email format must be name.mitblr20XX@learner.manipal.edu")
	}
	if f.Year < 1 || f.Year > 4 {
		return fieldError("year", "Please select your year.")
	}
	if f.DOB == "" {
		return fieldError("dob", "Please enter your Date of Birth.")
	}
	if !phonePattern.MatchString(f.Phone) {
		return fieldError("phone", "Please enter a valid 10-digit phone number.")
	}
	if !slices.Contains(Departments, f.Department) {
		return fieldError("department", "Please select your department.")
	}
	if f.Department == DepartmentOthers {
		if f.CustomDepartment == "" {
			return fieldError("customDepartment", "Please specify your department.")
		}
		if utf8.RuneCountInString(f.CustomDepartment) > MaxCustomDepartmentLength {
			return fieldError("customDepartment", "Department name must be "+
				strconv.Itoa(MaxCustomDepartmentLength)+" characters or less.")
		}
	}
	return nil
}

func fieldError(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      "profile.validate",
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// Profile uniqueness messages.
const (
	MsgRegNoTaken    = "Registration Number already registered."
	MsgPhoneTaken    = "Phone Number already registered."
	MsgProfileExists = "Profile already completed."
)
