package factory

import (
	"embed"
	"fmt"
	"path"
	"sort"
)

// =============================================================================
// BUILT-IN SCENARIOS
// =============================================================================
//
//   first-drop:   one zine, one consignment and one upfront batch
//   busy-season:  several zines across stores, every stock status
//   quiet-shelf:  catalog only, nothing placed yet
//
// To add one, drop a fixture document into scenarios/. The file name
// (without .json) must equal the document id.

//go:embed scenarios/*.json
var scenarioFS embed.FS

// ScenarioInfo describes a built-in fixture without loading it.
type ScenarioInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Scenarios lists the built-in fixtures sorted by id.
func (f *FixtureFactory) Scenarios() ([]ScenarioInfo, error) {
	entries, err := scenarioFS.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}
	infos := make([]ScenarioInfo, 0, len(entries))
	for _, e := range entries {
		fx, err := f.readScenario(e.Name())
		if err != nil {
			return nil, err
		}
		infos = append(infos, ScenarioInfo{ID: fx.ID, Name: fx.Name, Description: fx.Description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Scenario returns the built-in fixture with the given id.
func (f *FixtureFactory) Scenario(id string) (*Fixture, error) {
	fx, err := f.readScenario(id + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}
	return fx, nil
}

func (f *FixtureFactory) readScenario(name string) (*Fixture, error) {
	data, err := scenarioFS.ReadFile(path.Join("scenarios", name))
	if err != nil {
		return nil, err
	}
	return f.ParseFixture(data)
}
