package storage

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewClient(t *testing.T) {
	logger := zap.NewNop().Sugar()
	c := NewClient("host=db.example.com dbname=drought", logger)
	if c.dsn != "host=db.example.com dbname=drought" {
		t.Errorf("unexpected dsn %q", c.dsn)
	}
	if c.logger != logger {
		t.Error("injected logger not retained")
	}
}

func TestConnectLogsThroughInjectedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewClient("=not a dsn=", zap.New(core).Sugar())

	if err := c.Connect(); err == nil {
		t.Fatal("expected an error for a malformed DSN")
	}
	if logs.FilterMessageSnippet("PostgreSQL").Len() == 0 {
		t.Error("expected connection attempt to be logged through the client's logger")
	}
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("", zap.NewNop().Sugar())
	if err := c.SaveRun(nil); err == nil {
		t.Error("SaveRun should fail before Connect")
	}
	if _, err := c.ListRuns(0); err == nil {
		t.Error("ListRuns should fail before Connect")
	}
}
