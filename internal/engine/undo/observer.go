package undo

// observer pairs the buffer's two-phase change notification into one
// delta. The pre-change slice is cached until the matching post-change
// call arrives; the two calls are not transactional on their own, but
// the buffer delivers them back to back on the owning goroutine.
type observer struct {
	ctrl   *Controller
	before string
}

func (o *observer) BeforeChange(start int, removed string) {
	if o.ctrl.suppress {
		return
	}
	o.before = removed
}

func (o *observer) AfterChange(start int, inserted string) {
	if o.ctrl.suppress {
		return
	}
	o.ctrl.record(start, o.before, inserted)
	o.before = ""
}
