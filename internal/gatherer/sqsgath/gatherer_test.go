package sqsgath

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/labgrader/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m")}, f.err
}

func TestSqsGathererSendsEventsAndSlimRecord(t *testing.T) {
	client := &fakeSQS{}
	g := NewSqsResponseQueueGatherer(client, "run-9", "https://sqs.eu-central-1.amazonaws.com/1/grades")

	logs := make([]string, 100)
	g.StartJob("ali", "repo", "")
	g.FinishJob(&api.GradeRecord{RunUuid: "run-9", Student: "ali", Total: 90, Status: 1,
		Execution: &api.ExecutionData{Logs: logs}})

	require.Len(t, client.inputs, 3)
	for _, in := range client.inputs {
		assert.Equal(t, "https://sqs.eu-central-1.amazonaws.com/1/grades", aws.ToString(in.QueueUrl))
		assert.Equal(t, "run-9", aws.ToString(in.MessageAttributes["run_uuid"].StringValue))
	}
	assert.Equal(t, "job_start", aws.ToString(client.inputs[0].MessageAttributes["msg_type"].StringValue))
	assert.Equal(t, "job_finish", aws.ToString(client.inputs[1].MessageAttributes["msg_type"].StringValue))
	assert.Equal(t, MsgTypeRecord, aws.ToString(client.inputs[2].MessageAttributes["msg_type"].StringValue))

	var rec api.GradeRecord
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.inputs[2].MessageBody)), &rec))
	assert.Equal(t, 90, rec.Total)
	assert.Len(t, rec.Execution.Logs, api.MaxRuntimeDataHeight)
}

func TestSqsGathererToleratesSendErrors(t *testing.T) {
	g := NewSqsResponseQueueGatherer(&fakeSQS{err: errors.New("throttled")}, "run", "q")
	assert.NotPanics(t, func() { g.FinishJob(&api.GradeRecord{}) })
}
