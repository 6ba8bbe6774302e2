package settings

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/rdlab/internal/params"
)

// Version is written into every new snapshot. Entries without a version are
// legacy: the whole stored object is the configuration.
const Version = 1

// Actions are the recording controls saved alongside the parameters.
type Actions struct {
	TotalRecordingFrames   int    `json:"totalRecordingFrames"`
	RecordingPrefix        string `json:"recordingPrefix"`
	RestartBeforeRecording bool   `json:"restartBeforeRecording"`
}

type Snapshot struct {
	Name          string
	Version       int
	Configuration params.Group
	Actions       *Actions
}

// Legacy reports whether the snapshot was stored without a version wrapper.
func (s *Snapshot) Legacy() bool { return s.Version == 0 }

// entry is the stored form of a versioned snapshot.
type entry struct {
	Version         int          `json:"version"`
	ParameterValues params.Group `json:"parameterValues"`
	Actions         *Actions     `json:"actions,omitempty"`
}

// Exclusion names a field that is nulled before storage, and optionally a
// flag that records whether the field was populated. The flag is reset to
// false when the tree has it.
type Exclusion struct {
	Path       string
	LoadedFlag string
}

// ImageExclusions keep the style map image out of storage.
var ImageExclusions = []Exclusion{
	{Path: "styleMap.imageData", LoadedFlag: "styleMap.imageLoaded"},
}

func (e Exclusion) apply(g params.Group) {
	g.Set(e.Path, params.Null{})
	if e.LoadedFlag == "" {
		return
	}
	if _, ok := g.Lookup(e.LoadedFlag); ok {
		g.Set(e.LoadedFlag, params.Bool(false))
	}
}

func encodeEntry(configuration params.Group, exclusions []Exclusion, actions *Actions) (json.RawMessage, error) {
	cp := params.CloneGroup(configuration)
	for _, ex := range exclusions {
		ex.apply(cp)
	}
	return json.Marshal(entry{Version: Version, ParameterValues: cp, Actions: actions})
}

func decodeEntry(name string, raw json.RawMessage) (*Snapshot, error) {
	tree, err := params.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("settings: decode %q: %w", name, err)
	}

	snap := &Snapshot{Name: name, Configuration: tree}
	v, hasVersion := tree["version"].(params.Scalar)
	pv, hasValues := tree["parameterValues"].(params.Group)
	if !hasVersion || !hasValues || v.Float() == 0 {
		return snap, nil
	}

	var e struct {
		Actions *Actions `json:"actions"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("settings: decode %q actions: %w", name, err)
	}
	snap.Version = int(v.Float())
	snap.Configuration = pv
	snap.Actions = e.Actions
	return snap, nil
}
