package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	oldVersion := version
	version = "test-version-1.0.0"
	defer func() { version = oldVersion }()

	out, err := execute("version")
	assert.NoError(t, err)
	assert.Contains(t, out, "skimmer version test-version-1.0.0")
}

func TestWire_InjectsServices(t *testing.T) {
	oldScraper := scrapeOrchestrator
	oldVersion := version
	defer func() {
		scrapeOrchestrator = oldScraper
		version = oldVersion
	}()

	scraper := &mockScraper{}
	Wire(Deps{Scraper: scraper, Version: "9.9.9"})
	assert.Equal(t, scraper, scrapeOrchestrator)
	assert.Equal(t, "9.9.9", version)
}
