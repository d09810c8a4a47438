package cmd

import (
	"strings"

	"github.com/prosaga/prosaga/pkg/persistence"
	"github.com/prosaga/prosaga/pkg/persistence/file"
)

func NewPersistence(databaseURL string) persistence.Persistence {
	return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
}
