package server_test

import (
	"testing"

	kcs "github.com/mlopslab/mlreg/pkg/configs/server"
)

func TestLoadServerConfig(t *testing.T) {

	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := kcs.LoadServerConfig("./testdata/config.yaml")

		if err != nil {
			t.Errorf("failed to parse config.: %v", err)
		}
		expectedPort := "5000"
		if result.Port != expectedPort {
			t.Errorf("unmatch port:%s, expected:%s", result.Port, expectedPort)
		}
		expectedURI := "postgres://mlreg-test-pgdb-svc:32555/mlreg"
		if result.DBURI != expectedURI {
			t.Errorf("unmatch dburi:%s, expected:%s", result.DBURI, expectedURI)
		}
	})

	t.Run("it falls back to defaults for fields not given", func(t *testing.T) {
		result, err := kcs.Unmarshal([]byte("{}"))

		if err != nil {
			t.Errorf("failed to parse config.: %v", err)
		}
		if result.Port != "5000" {
			t.Errorf("unmatch port:%s, expected:5000", result.Port)
		}
		if result.DBURI != "mlreg.db" {
			t.Errorf("unmatch dburi:%s, expected:mlreg.db", result.DBURI)
		}
	})

}
