package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const defaultRFPTitle = "Procurement Request"

var correlationPattern = regexp.MustCompile(`(?i)RFP-(\d+)`)

// CorrelationTag is the marker embedded in outbound subjects, e.g. "[RFP-7]".
func CorrelationTag(rfpID int64) string {
	return fmt.Sprintf("[RFP-%d]", rfpID)
}

// InvitationSubject builds the subject line vendors must keep when replying.
func InvitationSubject(rfp RFP) string {
	title := strings.TrimSpace(rfp.Title)
	if title == "" {
		title = defaultRFPTitle
	}
	return fmt.Sprintf("%s Request for Proposal: %s", CorrelationTag(rfp.ID), title)
}

// ParseCorrelationTag extracts the first RFP id found in subject.
func ParseCorrelationTag(subject string) (int64, bool) {
	match := correlationPattern.FindStringSubmatch(subject)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
