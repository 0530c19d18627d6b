package bigquery

import (
	"context"
	"testing"

	"github.com/spinlytics/casino-analytics/pkg/config"
)

func TestNewClientRequiresProjectID(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.BigQueryConfig{
		Dataset: "casino_ops",
		Table:   "events",
	}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNewClientRequiresTable(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "spinlytics"}, config.BigQueryConfig{
		Dataset: "casino_ops",
		Table:   "   ",
	}, nil)
	if err != errTableNameRequired {
		t.Fatalf("expected table name error, got %v", err)
	}
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	gcp := config.GCPConfig{
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	gcp := config.GCPConfig{}

	opts := clientOptions(gcp)
	if len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}
