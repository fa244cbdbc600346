package config

import (
	"os"
	"testing"
)

// chdir は t.Chdir (Go 1.24+) と同等に作業ディレクトリを変更し、テスト終了時に元へ戻す
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
