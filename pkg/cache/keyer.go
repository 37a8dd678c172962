package cache

import "strconv"

// Key prefixes.
const (
	PrefixScene    = "scene"
	PrefixArtifact = "artifact"
)

// SceneKeyOpts holds the build options that change a scene snapshot.
type SceneKeyOpts struct {
	Levels         int  `json:"levels"`
	IncludeScalars bool `json:"include_scalars"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	FrameHash   string  `json:"frame_hash"` // Hash of the drawn frame
	LayoutHash  string  `json:"layout_hash"`
	Theme       string  `json:"theme,omitempty"`
	Grid        bool    `json:"grid,omitempty"`
	Interactive bool    `json:"interactive,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	SceneKey(sceneHash string, opts SceneKeyOpts) string
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey returns "scene:<hash>" over the scene hash and build options.
func (DefaultKeyer) SceneKey(sceneHash string, opts SceneKeyOpts) string {
	return key(PrefixScene, sceneHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>" so entries of one format can
// be told apart when listing a backend.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return key(PrefixArtifact+":"+opts.Format, sceneHash, opts)
}

// DebugString renders opts compactly for logs.
func (o ArtifactKeyOpts) DebugString() string {
	s := o.Format
	if o.Theme != "" {
		s += " theme=" + o.Theme
	}
	if o.Scale != 0 {
		s += " scale=" + strconv.FormatFloat(o.Scale, 'g', -1, 64)
	}
	return s
}
