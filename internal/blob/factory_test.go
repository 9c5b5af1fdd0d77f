package blob

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	appcfg "github.com/fdg312/macro-coach/internal/config"
)

func TestNewBlobStoreLocalForced(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected nil store in local mode, got store=%v mode=%s", store, mode)
	}
	if !strings.Contains(buf.String(), "mode=local (forced)") {
		t.Fatalf("expected local mode log, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoFallsBackToLocal(t *testing.T) {
	tests := []struct {
		name     string
		s3       appcfg.S3Config
		wantCode string
	}{
		{"empty", appcfg.S3Config{}, "code=s3_not_configured"},
		{"partial", appcfg.S3Config{Endpoint: "http://localhost:9000", Bucket: "reports"}, "code=s3_partial_config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto, S3: tt.s3}, log.New(&buf, "", 0))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if mode != appcfg.BlobModeLocal || store != nil {
				t.Fatalf("expected local fallback, got store=%v mode=%s", store, mode)
			}
			if !strings.Contains(buf.String(), tt.wantCode) {
				t.Fatalf("expected %s diagnostics, got: %s", tt.wantCode, buf.String())
			}
		})
	}
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "http://localhost:9000"},
	}, nil)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "S3_BUCKET") {
		t.Fatalf("expected missing S3_BUCKET in error, got: %v", err)
	}
}

func TestNewBlobStoreS3Configured(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "reports",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio123",
		},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 || store == nil {
		t.Fatalf("expected s3 store, got store=%v mode=%s", store, mode)
	}
}

func TestReportKey(t *testing.T) {
	got := ReportKey("demo_user", "2024-03-01", "2024-03-10", "abc", "pdf")
	if got != "reports/demo_user/2024-03-01_2024-03-10_abc.pdf" {
		t.Errorf("unexpected key %s", got)
	}
}
