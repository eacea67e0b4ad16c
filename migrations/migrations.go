package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
)

//go:embed sql
var files embed.FS

var serviceDBs = map[string]string{
	string(pkgconstants.Participant_Sale):      pkgconstants.DBNameSale,
	string(pkgconstants.Participant_Inventory): pkgconstants.DBNameInventory,
	string(pkgconstants.Participant_Payment):   pkgconstants.DBNamePayment,
}

func DBName(service string) (string, error) {
	name, ok := serviceDBs[service]
	if !ok {
		return "", fmt.Errorf("unknown service %q (use sale, inventory or payment)", service)
	}
	return name, nil
}

// New opens the embedded migrations of one service against dbURL.
func New(service, dbURL string) (*migrate.Migrate, error) {
	if _, err := DBName(service); err != nil {
		return nil, err
	}
	src, err := iofs.New(files, "sql/"+service)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

func Up(service, dbURL string) error {
	m, err := New(service, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
