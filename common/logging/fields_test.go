package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestService(t *testing.T) {
	attr := Service("wodle")
	if attr.Key != FieldService {
		t.Errorf("expected key %q, got %q", FieldService, attr.Key)
	}
	if attr.Value.String() != "wodle" {
		t.Errorf("expected value %q, got %q", "wodle", attr.Value.String())
	}
}

func TestError(t *testing.T) {
	err := errors.New("something went wrong")
	attr := Error(err)
	if attr.Key != FieldError {
		t.Errorf("expected key %q, got %q", FieldError, attr.Key)
	}
	if attr.Value.String() != "something went wrong" {
		t.Errorf("expected value %q, got %q", "something went wrong", attr.Value.String())
	}
}

func TestDestination(t *testing.T) {
	attr := Destination("/var/ossec/queue/sockets/queue")
	if attr.Key != FieldDestination {
		t.Errorf("expected key %q, got %q", FieldDestination, attr.Key)
	}
	if attr.Value.String() != "/var/ossec/queue/sockets/queue" {
		t.Errorf("unexpected value %q", attr.Value.String())
	}
}

func TestBytesAndCount(t *testing.T) {
	if got := Bytes(42).Value.Int64(); got != 42 {
		t.Errorf("expected 42 bytes, got %d", got)
	}
	if got := Count(7).Value.Int64(); got != 7 {
		t.Errorf("expected count 7, got %d", got)
	}
}

func TestFieldHelpers_Keys(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
	}{
		{"Service", Service("test"), FieldService},
		{"Error", Error(errors.New("test")), FieldError},
		{"RunID", RunID("test"), FieldRunID},
		{"Integration", Integration("test"), FieldIntegration},
		{"Destination", Destination("test"), FieldDestination},
		{"Reason", Reason("test"), FieldReason},
		{"Bytes", Bytes(1), FieldBytes},
		{"Count", Count(1), FieldCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
		})
	}
}
