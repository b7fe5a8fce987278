package resources

import (
	"embed"
	"fmt"
)

const stagesDir = "stages/"

//go:embed stages/*.yaml
var stagesFS embed.FS

// PPCStages returns the embedded PPC stage catalogue.
func PPCStages() ([]byte, error) {
	return loadFile(stagesFS, stagesDir+"ppc.yaml")
}

func loadFile(fs embed.FS, path string) ([]byte, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}
	return data, nil
}
