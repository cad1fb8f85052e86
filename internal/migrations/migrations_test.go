package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/casbin/casbin/v3/model"
)

func TestFilesAreVersionedGooseMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("glob = %v, %v", files, err)
	}

	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			body, err := fs.ReadFile(FS, name)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			s := string(body)
			if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
				t.Fatal("missing goose annotations")
			}
		})
	}
}

func TestCasbinModelParses(t *testing.T) {
	if _, err := model.NewModelFromString(CasbinModel); err != nil {
		t.Fatalf("model: %v", err)
	}
}
