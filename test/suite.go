// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package test contains end-to-end tests which run the service against real postgres
// and kafka containers. The tests are skipped with -short.
package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/contaconmigo/core/access"
	"github.com/relabs-tech/contaconmigo/core/backend"
	"github.com/relabs-tech/contaconmigo/core/client"
	"github.com/relabs-tech/contaconmigo/core/csql"
	"github.com/relabs-tech/contaconmigo/core/identity"
	"github.com/relabs-tech/contaconmigo/core/notify"
	"github.com/relabs-tech/contaconmigo/core/store"
)

const (
	jwtSecret   = "integration-secret"
	jwtAudience = "authenticated"
	eventsTopic = "contaconmigo.events"
)

// IntegrationTestSuite starts postgres and kafka once and serves a backend on top of them
type IntegrationTestSuite struct {
	suite.Suite

	network           testcontainers.Network
	kafkaContainer    testcontainers.Container
	zookeeper         testcontainers.Container
	postgresContainer testcontainers.Container
	kafkaConn         *kafka.Conn
	kafkaAddr         string

	dbConn   *csql.DB
	store    *store.Postgres
	notifier *notify.Kafka
	router   *mux.Router
}

func (s *IntegrationTestSuite) createTopic(topic string, numPartitions int) error {
	if s.kafkaConn == nil {
		return fmt.Errorf("kafka connection is not established")
	}

	err := s.kafkaConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	return nil
}

func (s *IntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping container based tests in short mode")
	}
	ctx := context.Background()

	// Create a shared Docker network for Kafka and Zookeeper
	networkName := "test-contaconmigo-network_" + fmt.Sprintf("%d", time.Now().Unix())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name:           networkName,
			CheckDuplicate: true,
		},
	})
	s.Require().NoError(err)
	s.network = network

	postgresUser := "testuser"
	postgresPassword := "testpass"
	postgresDB := "testdb"

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		Networks:       []string{networkName},
		NetworkAliases: map[string][]string{networkName: {"postgres"}},
		WaitingFor:     wait.ForListeningPort("5432/tcp"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	zooReq := testcontainers.ContainerRequest{
		Image:        "confluentinc/cp-zookeeper:7.5.0",
		ExposedPorts: []string{"2181/tcp"},
		Env: map[string]string{
			"ZOOKEEPER_CLIENT_PORT": "2181",
			"ZOOKEEPER_TICK_TIME":   "2000",
		},
		WaitingFor:     wait.ForListeningPort("2181/tcp"),
		Networks:       []string{networkName},
		NetworkAliases: map[string][]string{networkName: {"zookeeper"}},
	}
	s.zookeeper, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: zooReq,
		Started:          true,
	})
	s.Require().NoError(err)

	kafkaReq := testcontainers.ContainerRequest{
		Image:        "confluentinc/cp-kafka:7.5.0",
		ExposedPorts: []string{"9092:9092/tcp", "29092:29092/tcp"},
		Env: map[string]string{
			"KAFKA_BROKER_ID":                        "1",
			"KAFKA_ZOOKEEPER_CONNECT":                "zookeeper:2181",
			"KAFKA_LISTENERS":                        "PLAINTEXT://0.0.0.0:9092,PLAINTEXT_HOST://0.0.0.0:29092,EXTERNAL://0.0.0.0:9093",
			"KAFKA_ADVERTISED_LISTENERS":             "PLAINTEXT://localhost:9092,PLAINTEXT_HOST://localhost:29092,EXTERNAL://kafka:9093",
			"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":   "PLAINTEXT:PLAINTEXT,PLAINTEXT_HOST:PLAINTEXT,EXTERNAL:PLAINTEXT",
			"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
			"ALLOW_PLAINTEXT_LISTENER":               "yes",
		},
		WaitingFor:     wait.ForLog("started (kafka.server.KafkaServer)"),
		Networks:       []string{networkName},
		NetworkAliases: map[string][]string{networkName: {"kafka"}},
	}
	kafkaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: kafkaReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.kafkaContainer = kafkaC

	kafkaHost, err := kafkaC.Host(ctx)
	s.Require().NoError(err)
	kafkaPort, err := kafkaC.MappedPort(ctx, "9092")
	s.Require().NoError(err)
	s.kafkaAddr = fmt.Sprintf("%s:%s", kafkaHost, kafkaPort.Port())

	s.kafkaConn, err = kafka.Dial("tcp", s.kafkaAddr)
	s.Require().NoError(err)
	s.Require().NoError(s.createTopic(eventsTopic, 3), "Failed to create events topic")

	s.dbConn, err = csql.OpenWithSchema(ctx, fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), postgresUser, postgresDB), postgresPassword, "contaconmigo")
	s.Require().NoError(err)
	s.store, err = store.NewPostgres(ctx, s.dbConn)
	s.Require().NoError(err)

	verifier, err := access.NewTokenVerifier(jwtSecret, jwtAudience)
	s.Require().NoError(err)
	s.notifier = notify.NewKafka([]string{s.kafkaAddr}, eventsTopic)

	s.router = mux.NewRouter()
	backend.New(&backend.Builder{
		Router:   s.router,
		Store:    s.store,
		Verifier: verifier,
		Identity: identity.New("", ""),
		Notifier: s.notifier,
	})
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.notifier != nil {
		s.NoError(s.notifier.Close())
	}
	if s.kafkaConn != nil {
		s.kafkaConn.Close()
	}
	if s.dbConn != nil {
		s.NoError(s.dbConn.ClearSchema(ctx))
		s.dbConn.Close()
	}
	for _, c := range []testcontainers.Container{s.kafkaContainer, s.zookeeper, s.postgresContainer} {
		if c != nil {
			s.NoError(c.Terminate(ctx))
		}
	}
	if s.network != nil {
		s.NoError(s.network.Remove(ctx))
	}
}

// clientFor returns a client which authenticates as subject
func (s *IntegrationTestSuite) clientFor(subject string) client.Client {
	claims := jwt.MapClaims{
		"iss":   "contaconmigo-test",
		"sub":   subject,
		"aud":   jwtAudience,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"email": subject + "@example.com",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	s.Require().NoError(err)
	return client.NewWithRouter(s.router).WithToken(token)
}
