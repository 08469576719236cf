// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package validation

import (
	"strings"
	"testing"
)

// createRequest mirrors the shape the API validates on POST /reservas.
type createRequest struct {
	DestinationID int64  `validate:"required,gt=0"`
	ShipID        int64  `validate:"required,gt=0"`
	TravelDate    string `validate:"required,datetime=2006-01-02"`
	Passengers    int    `validate:"min=1,max=12"`
	Status        string `validate:"omitempty,oneof=pendiente confirmada cancelada completada"`
	Contact       string `validate:"omitempty,email"`
}

func validCreateRequest() createRequest {
	return createRequest{
		DestinationID: 7,
		ShipID:        3,
		TravelDate:    "2026-11-15",
		Passengers:    2,
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator must return one shared instance")
	}
}

func TestValidateStructAcceptsValidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*createRequest)
	}{
		{"baseline", func(r *createRequest) {}},
		{"max passengers", func(r *createRequest) { r.Passengers = 12 }},
		{"known status", func(r *createRequest) { r.Status = "confirmada" }},
		{"contact email", func(r *createRequest) { r.Contact = "viajero@example.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			if err := ValidateStruct(&req); err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateStructRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*createRequest)
		wantField string
		wantTag   string
	}{
		{"missing destination", func(r *createRequest) { r.DestinationID = 0 }, "DestinationID", "required"},
		{"missing travel date", func(r *createRequest) { r.TravelDate = "" }, "TravelDate", "required"},
		{"wrong date layout", func(r *createRequest) { r.TravelDate = "15/11/2026" }, "TravelDate", "datetime"},
		{"zero passengers", func(r *createRequest) { r.Passengers = 0 }, "Passengers", "min"},
		{"too many passengers", func(r *createRequest) { r.Passengers = 40 }, "Passengers", "max"},
		{"unknown status", func(r *createRequest) { r.Status = "embarcada" }, "Status", "oneof"},
		{"bad contact", func(r *createRequest) { r.Contact = "not-an-email" }, "Contact", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			verr := ValidateStruct(&req)
			if verr == nil {
				t.Fatal("expected validation to fail")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected one field error, got %d: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("field: got %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("tag: got %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestTranslatedMessagesAreSpanish(t *testing.T) {
	req := validCreateRequest()
	req.TravelDate = "mañana"

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation to fail")
	}
	msg := verr.Error()
	if !strings.Contains(msg, "fecha válida") {
		t.Errorf("expected Spanish datetime message, got %q", msg)
	}
}

func TestToAPIErrorSingleField(t *testing.T) {
	req := validCreateRequest()
	req.Passengers = 99

	apiErr := ValidateStruct(&req).ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected code %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "Passengers" {
		t.Errorf("expected field detail, got %v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "como máximo 12") {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	req := createRequest{TravelDate: "bad", Passengers: 0}

	apiErr := ValidateStruct(&req).ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected code %q", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("expected fields list in details, got %T", apiErr.Details["fields"])
	}
	if len(fields) < 3 {
		t.Errorf("expected at least 3 failing fields, got %d", len(fields))
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("multi-field message should join with ';', got %q", apiErr.Message)
	}
}

func TestValidateStructStringLengthMessages(t *testing.T) {
	type note struct {
		Text string `validate:"min=3,max=10"`
	}

	verr := ValidateStruct(&note{Text: "ab"})
	if verr == nil {
		t.Fatal("expected validation to fail")
	}
	if !strings.Contains(verr.Error(), "al menos 3 caracteres") {
		t.Errorf("expected character-count message, got %q", verr.Error())
	}

	verr = ValidateStruct(&note{Text: "demasiado larga"})
	if verr == nil {
		t.Fatal("expected validation to fail")
	}
	if !strings.Contains(verr.Error(), "como máximo 10 caracteres") {
		t.Errorf("expected character-count message, got %q", verr.Error())
	}
}
