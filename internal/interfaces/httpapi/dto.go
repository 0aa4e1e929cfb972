package httpapi

import (
	"fmt"

	"github.com/riskibarqy/application-relay/internal/domain/status"
	"github.com/riskibarqy/application-relay/internal/usecase"
)

const (
	outcomeSuccess = "SUCCESS"
	outcomeFailure = "FAILURE"
)

type applicationStatusDTO struct {
	ApplicationID     string `json:"application_id"`
	Outcome           string `json:"outcome"`
	ApplicationStatus string `json:"application_status,omitempty"`
	LastRequestTimeMS *int64 `json:"last_request_time_ms,omitempty"`
	RetriesCount      int    `json:"retries_count"`
}

type publishEventDTO struct {
	Recipients int `json:"recipients"`
}

func toApplicationStatusDTO(requestedID string, result status.ApplicationStatus) (applicationStatusDTO, error) {
	switch v := result.(type) {
	case status.ApplicationSuccess:
		return applicationStatusDTO{
			ApplicationID:     v.ID,
			Outcome:           outcomeSuccess,
			ApplicationStatus: v.Status,
		}, nil
	case status.ApplicationFailure:
		dto := applicationStatusDTO{
			ApplicationID: requestedID,
			Outcome:       outcomeFailure,
			RetriesCount:  v.RetriesCount,
		}
		if v.LastRequestTime != nil {
			ms := v.LastRequestTime.Milliseconds()
			dto.LastRequestTimeMS = &ms
		}
		return dto, nil
	default:
		return applicationStatusDTO{}, fmt.Errorf("%w: unexpected application status %T", usecase.ErrInternal, result)
	}
}
