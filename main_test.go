package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_RejectsBadCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown command", args: []string{"serve"}, wantErr: `unknown command "serve"`},
		{name: "migrate without action", args: []string{"migrate"}, wantErr: "usage: sessionbot migrate"},
		{name: "unknown migrate action", args: []string{"migrate", "sideways"}, wantErr: "unknown migration command"},
		{name: "non numeric down steps", args: []string{"migrate", "down", "two"}, wantErr: "invalid steps value"},
		{name: "ingest without file", args: []string{"ingest"}, wantErr: "--file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, run(tt.args), tt.wantErr)
		})
	}
}
