// Package archive persists solved cases to MongoDB. It subscribes to the
// run's message bus and upserts one document per case, keyed by the
// publisher's PID.
package archive

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ohowland/cgc_expand/internal/pkg/msg"
)

type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	URI      string `json:"URI"`
	Database string `json:"Database"`
	Port     string `json:"Port"`
}

func redirectMsg(chIn <-chan msg.Msg, chOut chan<- msg.Msg) {
	for m := range chIn {
		chOut <- m
	}
}

func New(configPath string, pub msg.Publisher) (Handler, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}

	pid, _ := uuid.NewUUID()

	inbox := make(chan msg.Msg, 50)

	chSolution, err := pub.Subscribe(pid, msg.Solution)
	if err != nil {
		return Handler{}, err
	}
	go redirectMsg(chSolution, inbox)

	chConfig, err := pub.Subscribe(pid, msg.Config)
	if err != nil {
		return Handler{}, err
	}
	go redirectMsg(chConfig, inbox)

	chStatus, err := pub.Subscribe(pid, msg.Status)
	if err != nil {
		return Handler{}, err
	}
	go redirectMsg(chStatus, inbox)

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  inbox,
		pid:    pid,
		config: cfg,
		stop:   make(chan bool),
	}, nil
}

func msgToBSON(m msg.Msg) bson.D {
	return bson.D{
		{Key: "$set", Value: bson.M{
			"pid":  m.PID().String(),
			"data": m.Payload(),
		}},
	}
}

func (h *Handler) StopProcess() {
	h.stop <- true
}

func (h Handler) Process() {
	client, err := mongo.NewClient(options.Client().ApplyURI(h.config.URI + ":" + h.config.Port))
	if err != nil {
		log.Println(err)
	}

	ctx := context.TODO()
	err = client.Connect(ctx)
	if err != nil {
		log.Println(err)
	}
	defer client.Disconnect(ctx)

loop:
	for {
		select {
		case m := <-h.inbox:
			switch m.Topic() {
			case msg.Solution:
				opts := options.Update().SetUpsert(true)
				_, err = client.Database(h.config.Database).Collection("caseResults").UpdateOne(
					ctx,
					bson.M{"pid": m.PID().String()},
					msgToBSON(m),
					opts,
				)
				if err != nil {
					log.Println("[Archive]", err)
				}

			case msg.Status:
				opts := options.Update().SetUpsert(true)
				_, err = client.Database(h.config.Database).Collection("caseStatus").UpdateOne(
					ctx,
					bson.M{"pid": m.PID().String()},
					msgToBSON(m),
					opts,
				)
				if err != nil {
					log.Println("[Archive]", err)
				}

			case msg.Config:
				log.Println("[Archive] Config:", m)
				opts := options.Update().SetUpsert(true)
				_, err = client.Database(h.config.Database).Collection("caseConfig").UpdateOne(
					ctx,
					bson.M{"pid": m.PID().String()},
					msgToBSON(m),
					opts,
				)
				if err != nil {
					log.Println("[Archive]", err)
				}
			}
		case <-h.stop:
			break loop
		}
	}
	log.Println("[Archive] Process Shutdown")
}
