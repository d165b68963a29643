package msg

import (
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
)

func TestSubscribe(t *testing.T) {
	pidPub, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub1, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub2, err := uuid.NewUUID()
	assert.NilError(t, err)

	pubsub := NewPublisher(pidPub)
	ch1, err := pubsub.Subscribe(pidSub1, Status)
	assert.NilError(t, err)
	ch2, err := pubsub.Subscribe(pidSub2, Status)
	assert.NilError(t, err)

	pubsub.Publish(Status, "solving")

	incoming := <-ch1
	assert.Equal(t, incoming.Payload(), "solving")
	assert.Equal(t, incoming.Topic(), Status)
	assert.Equal(t, incoming.PID(), pidPub)

	incoming = <-ch2
	assert.Equal(t, incoming.Payload(), "solving")
}

func TestTopicIsolation(t *testing.T) {
	pidPub, _ := uuid.NewUUID()
	pidSub, _ := uuid.NewUUID()

	pubsub := NewPublisher(pidPub)
	chStatus, err := pubsub.Subscribe(pidSub, Status)
	assert.NilError(t, err)

	pubsub.Publish(Config, "scenario")
	select {
	case m := <-chStatus:
		t.Fatalf("status subscriber received config message %v", m)
	default:
	}
}

func TestDuplicateSubscribeRejected(t *testing.T) {
	pidPub, _ := uuid.NewUUID()
	pidSub, _ := uuid.NewUUID()

	pubsub := NewPublisher(pidPub)
	_, err := pubsub.Subscribe(pidSub, Status)
	assert.NilError(t, err)
	_, err = pubsub.Subscribe(pidSub, Status)
	assert.ErrorContains(t, err, "already subscribed")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	pidPub, _ := uuid.NewUUID()
	pidSub, _ := uuid.NewUUID()

	pubsub := NewPublisher(pidPub)
	ch, err := pubsub.Subscribe(pidSub, Status)
	assert.NilError(t, err)

	pubsub.Unsubscribe(pidSub)
	_, open := <-ch
	assert.Assert(t, !open)
}
