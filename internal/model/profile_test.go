// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"slices"
	"testing"
	"time"
)

var october2026 = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func validForm() ProfileForm {
	return ProfileForm{
		RegNo:        "240000001",
		StudentEmail: "asha.mitblr2024@learner.manipal.edu",
		Year:         2,
		DOB:          "2005-04-12",
		Phone:        "9876543210",
		Department:   "CSE Core",
	}
}

func TestAllowedYearPrefixes(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"before 2026 window", time.Date(2026, time.April, 30, 23, 0, 0, 0, time.UTC), []string{"22", "23", "24", "25"}},
		{"2026 window opens in May", time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), []string{"22", "23", "24", "25", "26"}},
		{"late 2026", october2026, []string{"22", "23", "24", "25", "26"}},
		{"2027 window", time.Date(2027, time.May, 3, 0, 0, 0, 0, time.UTC), []string{"22", "23", "24", "25", "26", "27"}},
		{"2028", time.Date(2028, time.January, 1, 0, 0, 0, 0, time.UTC), []string{"22", "23", "24", "25", "26", "27"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowedYearPrefixes(tt.now); !slices.Equal(got, tt.want) {
				t.Errorf("AllowedYearPrefixes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateRegNo(t *testing.T) {
	april2026 := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		regNo   string
		now     time.Time
		wantErr string
	}{
		{"valid 24", "240000000", october2026, ""},
		{"eight digits", "99000000", october2026, "Registration Number must be 9 digits."},
		{"ten digits", "2400000000", october2026, "Registration Number must be 9 digits."},
		{"letters", "24000000a", october2026, "Registration Number must be 9 digits."},
		{"prefix 21", "210000000", october2026, "Invalid Year Prefix. Allowed: 22, 23, 24, 25, 26"},
		{"prefix 26 before window", "260000000", april2026, "Invalid Year Prefix. Allowed: 22, 23, 24, 25"},
		{"prefix 26 after window", "260000000", october2026, ""},
		{"prefix 27 before its window", "270000000", october2026, "Invalid Year Prefix. Allowed: 22, 23, 24, 25, 26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegNo(tt.regNo, tt.now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateRegNo(%q) = %v, want nil", tt.regNo, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateRegNo(%q) = nil, want error", tt.regNo)
			}
			if !IsKind(err, KindValidation) {
				t.Errorf("kind = %v, want validation", KindOf(err))
			}
			if got := MessageOf(err); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestValidStudentEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"asha.mitblr2024@learner.manipal.edu", true},
		{"Ravi.mitblr2023@learner.manipal.edu", true},
		{"asha@learner.manipal.edu", false},
		{"asha.mitblr24@learner.manipal.edu", false},
		{"asha.k.mitblr2024@learner.manipal.edu", false},
		{"asha1.mitblr2024@learner.manipal.edu", false},
		{"asha.mitblr2024@manipal.edu", false},
		{"asha.mitblr2024@learner.manipal.edu.evil.com", false},
	}

	for _, tt := range tests {
		if got := ValidStudentEmail(tt.email); got != tt.want {
			t.Errorf("ValidStudentEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestProfileForm_ValidateOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ProfileForm)
		wantField string
		wantMsg   string
	}{
		{"valid", func(*ProfileForm) {}, "", ""},
		{"regNo checked before email", func(f *ProfileForm) {
			f.RegNo = "12"
			f.StudentEmail = "bad"
		}, "regNo", "Registration Number must be 9 digits."},
		{"email", func(f *ProfileForm) { f.StudentEmail = "asha@gmail.com" }, "studentEmail",
			"Email format must be name.mitblr20XX@learner.manipal.edu"},
		{"year missing", func(f *ProfileForm) { f.Year = 0 }, "year", "Please select your year."},
		{"year out of range", func(f *ProfileForm) { f.Year = 5 }, "year", "Please select your year."},
		{"dob missing", func(f *ProfileForm) { f.DOB = "" }, "dob", "Please enter your Date of Birth."},
		{"phone short", func(f *ProfileForm) { f.Phone = "98765" }, "phone", "Please enter a valid 10-digit phone number."},
		{"phone letters", func(f *ProfileForm) { f.Phone = "98765abcde" }, "phone", "Please enter a valid 10-digit phone number."},
		{"unknown department", func(f *ProfileForm) { f.Department = "Mechanical" }, "department", "Please select your department."},
		{"others without name", func(f *ProfileForm) { f.Department = DepartmentOthers }, "customDepartment",
			"Please specify your department."},
		{"others too long", func(f *ProfileForm) {
			f.Department = DepartmentOthers
			f.CustomDepartment = "Computational Mathematics X"
		}, "customDepartment", "Department name must be 25 characters or less."},
		{"others ok", func(f *ProfileForm) {
			f.Department = DepartmentOthers
			f.CustomDepartment = "Biotech"
		}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			err := form.Validate(october2026)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("Validate() = %T %v, want *Error", err, err)
			}
			if e.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMsg)
			}
			if _, ok := e.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want key %q", e.Fields, tt.wantField)
			}
		})
	}
}

func TestProfileForm_EffectiveDepartment(t *testing.T) {
	f := ProfileForm{Department: DepartmentOthers, CustomDepartment: "Biotech"}
	if got := f.EffectiveDepartment(); got != "Biotech" {
		t.Errorf("EffectiveDepartment() = %q, want Biotech", got)
	}
	f.Department = "AI"
	if got := f.EffectiveDepartment(); got != "AI" {
		t.Errorf("EffectiveDepartment() = %q, want AI", got)
	}
}

func TestFlag_OnlyBooleanTrue(t *testing.T) {
	tests := []struct {
		doc  string
		want bool
	}{
		{`{"uid":"u1","townhall":true}`, true},
		{`{"uid":"u1","townhall":false}`, false},
		{`{"uid":"u1"}`, false},
		{`{"uid":"u1","townhall":null}`, false},
		{`{"uid":"u1","townhall":"true"}`, false},
		{`{"uid":"u1","townhall":1}`, false},
		{`{"uid":"u1","townhall":{"value":true}}`, false},
	}

	for _, tt := range tests {
		var p Profile
		if err := json.Unmarshal([]byte(tt.doc), &p); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.doc, err)
		}
		if got := p.Privileged(); got != tt.want {
			t.Errorf("Privileged() for %s = %v, want %v", tt.doc, got, tt.want)
		}
	}
}
