package schedulecontrol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"
)

// schedulerAPI is the minimal EventBridge Scheduler interface required by
// Client. Defined here for testability.
type schedulerAPI interface {
	GetSchedule(ctx context.Context, in *scheduler.GetScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.GetScheduleOutput, error)
	UpdateSchedule(ctx context.Context, in *scheduler.UpdateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error)
}

// Client toggles the EventBridge schedule that drives the orchestrator tick.
type Client struct {
	api       schedulerAPI
	groupName string
	name      string
}

// New creates a Client for the schedule identified by its ARN
// (arn:aws:scheduler:region:account:schedule/group/name; a bare name implies
// the default group).
func New(api schedulerAPI, scheduleARN string) (*Client, error) {
	if api == nil {
		return nil, errors.New("schedulecontrol: api must not be nil")
	}
	group, name, err := parseScheduleARN(scheduleARN)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, groupName: group, name: name}, nil
}

func parseScheduleARN(arn string) (group, name string, err error) {
	arn = strings.TrimSpace(arn)
	if arn == "" {
		return "", "", errors.New("schedulecontrol: schedule ARN must not be empty")
	}
	parts := strings.Split(arn, ":")
	resource := parts[len(parts)-1]
	resource = strings.TrimPrefix(resource, "schedule/")
	segments := strings.Split(resource, "/")
	switch len(segments) {
	case 1:
		return "default", segments[0], nil
	case 2:
		return segments[0], segments[1], nil
	default:
		return "", "", fmt.Errorf("schedulecontrol: cannot parse schedule ARN %q", arn)
	}
}

// SetEnabled flips the schedule state. UpdateSchedule replaces the whole
// schedule definition, so the current one is read first and written back with
// only the state changed.
func (c *Client) SetEnabled(ctx context.Context, enabled bool) error {
	current, err := c.api.GetSchedule(ctx, &scheduler.GetScheduleInput{
		Name:      &c.name,
		GroupName: &c.groupName,
	})
	if err != nil {
		return fmt.Errorf("schedulecontrol: get schedule %s/%s: %w", c.groupName, c.name, err)
	}

	state := types.ScheduleStateDisabled
	if enabled {
		state = types.ScheduleStateEnabled
	}
	if current.State == state {
		return nil
	}

	_, err = c.api.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:                       current.Name,
		GroupName:                  current.GroupName,
		ScheduleExpression:         current.ScheduleExpression,
		ScheduleExpressionTimezone: current.ScheduleExpressionTimezone,
		FlexibleTimeWindow:         current.FlexibleTimeWindow,
		Target:                     current.Target,
		Description:                current.Description,
		StartDate:                  current.StartDate,
		EndDate:                    current.EndDate,
		KmsKeyArn:                  current.KmsKeyArn,
		State:                      state,
	})
	if err != nil {
		return fmt.Errorf("schedulecontrol: update schedule %s/%s: %w", c.groupName, c.name, err)
	}
	return nil
}
