// Package motion holds keyframe animation: per-bone and per-morph tracks
// evaluated at fractional frames.
package motion

import (
	"sort"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/vmd"
)

// Motion is an immutable set of tracks, safe to share between players.
type Motion struct {
	Name   string
	Bones  []*BoneTrack  // sorted by name
	Morphs []*MorphTrack // sorted by name
	length uint32
}

// Options control the VMD conversion.
type Options struct {
	UnitScale float64 // 0 means mathutil.DefaultUnitScale
}

// New builds a Motion from tracks. Keys are sorted by frame; when a frame
// is keyed more than once the last key wins.
func New(name string, bones []*BoneTrack, morphs []*MorphTrack) *Motion {
	m := &Motion{Name: name, Bones: bones, Morphs: morphs}
	for _, t := range bones {
		t.Keys = dedupeBoneKeys(t.Keys)
		m.length = max(m.length, t.Length())
	}
	for _, t := range morphs {
		t.Keys = dedupeMorphKeys(t.Keys)
		m.length = max(m.length, t.Length())
	}
	sort.Slice(m.Bones, func(i, j int) bool { return m.Bones[i].Name < m.Bones[j].Name })
	sort.Slice(m.Morphs, func(i, j int) bool { return m.Morphs[i].Name < m.Morphs[j].Name })
	return m
}

// Length is the last keyed frame across all tracks; 0 for an empty motion.
func (m *Motion) Length() uint32 { return m.length }

// TrackCount is the number of bone plus morph tracks.
func (m *Motion) TrackCount() int { return len(m.Bones) + len(m.Morphs) }

// BoneTrack returns the track keyed by name, or nil.
func (m *Motion) BoneTrack(name string) *BoneTrack {
	i := sort.Search(len(m.Bones), func(i int) bool { return m.Bones[i].Name >= name })
	if i < len(m.Bones) && m.Bones[i].Name == name {
		return m.Bones[i]
	}
	return nil
}

// MorphTrack returns the track keyed by name, or nil.
func (m *Motion) MorphTrack(name string) *MorphTrack {
	i := sort.Search(len(m.Morphs), func(i int) bool { return m.Morphs[i].Name >= name })
	if i < len(m.Morphs) && m.Morphs[i].Name == name {
		return m.Morphs[i]
	}
	return nil
}

func dedupeBoneKeys(keys []BoneKeyframe) []BoneKeyframe {
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	out := keys[:0]
	for _, k := range keys {
		if n := len(out); n > 0 && out[n-1].Frame == k.Frame {
			out[n-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}

func dedupeMorphKeys(keys []MorphKeyframe) []MorphKeyframe {
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	out := keys[:0]
	for _, k := range keys {
		if n := len(out); n > 0 && out[n-1].Frame == k.Frame {
			out[n-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}

// FromVMD groups a VMD document's frames into tracks. Translations are
// scaled by opts.UnitScale; rotations are normalized.
func FromVMD(doc *vmd.Document, opts Options) *Motion {
	scale := opts.UnitScale
	if scale == 0 {
		scale = mathutil.DefaultUnitScale
	}

	bones := map[string]*BoneTrack{}
	for i := range doc.BoneFrames {
		f := &doc.BoneFrames[i]
		t := bones[f.Name]
		if t == nil {
			t = &BoneTrack{Name: f.Name}
			bones[f.Name] = t
		}
		q := mathutil.QuatFromXYZW(float64(f.Rotation[0]), float64(f.Rotation[1]),
			float64(f.Rotation[2]), float64(f.Rotation[3]))
		if q.Len() < 1e-9 {
			q = mathutil.QuatIdent()
		} else {
			q = q.Normalize()
		}
		k := BoneKeyframe{
			Frame:       f.Frame,
			Translation: mathutil.FromFloat32(f.Position, scale),
			Rotation:    q,
		}
		for c := 0; c < 4; c++ {
			k.Curves[c] = CurveFromBytes(f.Curve(vmd.ChannelX + c))
		}
		t.Keys = append(t.Keys, k)
	}

	morphs := map[string]*MorphTrack{}
	for _, f := range doc.MorphFrames {
		t := morphs[f.Name]
		if t == nil {
			t = &MorphTrack{Name: f.Name}
			morphs[f.Name] = t
		}
		t.Keys = append(t.Keys, MorphKeyframe{Frame: f.Frame, Weight: float64(f.Weight)})
	}

	boneList := make([]*BoneTrack, 0, len(bones))
	for _, t := range bones {
		boneList = append(boneList, t)
	}
	morphList := make([]*MorphTrack, 0, len(morphs))
	for _, t := range morphs {
		morphList = append(morphList, t)
	}
	return New(doc.ModelName, boneList, morphList)
}

// Load parses a VMD file and converts it.
func Load(path string, opts Options) (*Motion, error) {
	doc, err := vmd.Parse(path)
	if err != nil {
		return nil, err
	}
	return FromVMD(doc, opts), nil
}
