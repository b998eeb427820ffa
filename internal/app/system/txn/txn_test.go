package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"standalone server", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"unrelated code", mongo.CommandError{Code: 51, Message: "cursor mismatch"}, false},
		{"unsupported in transaction", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"duplicate key is a real failure", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped command error", fmt.Errorf("add member: %w", mongo.CommandError{Code: 20}), true},
		{"two keywords", errors.New("Transaction numbers need a Replica Set"), true},
		{"session keywords", errors.New("sessions are not supported by the server"), true},
		{"single keyword", errors.New("transaction aborted: write conflict"), false},
		{"illegal operation alone", errors.New("Illegal Operation"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	if Active(context.Background()) {
		t.Error("background context should not be active")
	}
	ctx := context.WithValue(context.Background(), activeKey{}, true)
	if !Active(ctx) {
		t.Error("expected marked context to be active")
	}
}
