package webhook

import (
	"github.com/profeds/advisor-dashboard/internal/pkg/payload"
)

// Meta is the searchable metadata of an audit entry, pulled straight from
// the raw body. It is computed independently of the pipeline outcome so a
// request that failed validation still gets whatever could be read from it.
type Meta struct {
	AdvisorCode *string
	Action      *string
	ContactID   *string
	Tab         *string
}

func extractMeta(raw []byte) Meta {
	var meta Meta

	flat := payload.Parse(raw, "")
	if flat == nil {
		return meta
	}

	if code := payload.GetString(flat, "advisor_code", "advisorCode"); code != "" {
		meta.AdvisorCode = &code
	}
	if id := payload.GetString(flat, "contact_id", "contactId"); id != "" {
		meta.ContactID = &id
	}
	if action := payload.GetString(flat, "action"); action != "" {
		meta.Action = &action
		if tab, ok := actionTabs[action]; ok {
			meta.Tab = &tab
		}
	}

	return meta
}
