package policy

// nonePolicy implements the NONE selection: the subsystem is disabled.
// ProcessPagingState still calls Kind and AgeTick on it (AgeTick does
// nothing); the remaining methods exist only so Policy is total and
// callers need no nil-check.
type nonePolicy struct{}

func (nonePolicy) Kind() Selection { return None }

func (nonePolicy) InitAging() uint32 { return 0 }

func (nonePolicy) AgeTick(ps PageSource) {}

func (nonePolicy) Victim(ps PageSource) (int, bool) { return 0, false }

func (nonePolicy) OnResident(ps PageSource, i int) {}
