package session

// EmptyRange is the frame range shown for a session without a keyed motion.
const EmptyRange = 10000

// Entry is one row of a timeline: the whole motion or one track.
type Entry struct {
	Label string
	Start int
	End   int
}

// Timeline is the capability a sequencer widget needs.
type Timeline interface {
	FrameRange() (first, last int)
	EntryCount() int
	Entry(i int) Entry
	OnScrub(frame int)
}

type timeline struct{ s *Session }

// Timeline exposes the session to a sequencer: entry 0 spans the whole
// motion, then one entry per bone track and one per morph track.
func (s *Session) Timeline() Timeline { return timeline{s} }

func (t timeline) FrameRange() (int, int) {
	if n := int(t.s.Length()); n > 0 {
		return 0, n
	}
	return 0, EmptyRange
}

func (t timeline) EntryCount() int {
	mo := t.s.scene.motion
	if mo == nil {
		return 1
	}
	return 1 + mo.TrackCount()
}

func (t timeline) Entry(i int) Entry {
	mo := t.s.scene.motion
	if i == 0 || mo == nil {
		_, last := t.FrameRange()
		name := "motion"
		if mo != nil && mo.Name != "" {
			name = mo.Name
		}
		return Entry{Label: name, End: last}
	}
	i--
	if i < len(mo.Bones) {
		tr := mo.Bones[i]
		if len(tr.Keys) == 0 {
			return Entry{Label: tr.Name}
		}
		return Entry{Label: tr.Name, Start: int(tr.Keys[0].Frame), End: int(tr.Length())}
	}
	i -= len(mo.Bones)
	if i < len(mo.Morphs) {
		tr := mo.Morphs[i]
		if len(tr.Keys) == 0 {
			return Entry{Label: tr.Name}
		}
		return Entry{Label: tr.Name, Start: int(tr.Keys[0].Frame), End: int(tr.Length())}
	}
	return Entry{}
}

// OnScrub seeks without changing the play state. The frame is clamped to
// FrameRange, so a session without a keyed motion still scrubs across
// EmptyRange.
func (t timeline) OnScrub(frame int) {
	first, last := t.FrameRange()
	t.s.frame = float64(min(max(frame, first), last))
}
