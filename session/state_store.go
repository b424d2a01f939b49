package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "sessionbot:state:"

// Step names what the bot is waiting for from a chat
type Step string

const (
	StepAwaitingRechargeAmount Step = "awaiting_recharge_amount"
	StepAwaitingFile           Step = "awaiting_file"
)

// State is the conversation state of one chat.
// Platform, Country and PriceRupees are set while an admin upload is pending.
type State struct {
	Step        Step   `json:"step"`
	Platform    string `json:"platform,omitempty"`
	Country     string `json:"country,omitempty"`
	PriceRupees int64  `json:"price_rupees,omitempty"`
}

// StateStore keeps per-chat conversation state in Redis with a TTL
type StateStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Connect opens a Redis client and verifies it responds
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.WithField("addr", addr).Info("Connected to Redis")
	return client, nil
}

// NewStateStore creates a state store whose entries expire after ttl
func NewStateStore(client redis.Cmdable, ttl time.Duration) *StateStore {
	return &StateStore{
		client: client,
		ttl:    ttl,
	}
}

func stateKey(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// Set replaces the chat's state and restarts its TTL
func (s *StateStore) Set(ctx context.Context, chatID int64, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}

	if err := s.client.Set(ctx, stateKey(chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store conversation state: %w", err)
	}

	log.WithFields(log.Fields{
		"chatID": chatID,
		"step":   state.Step,
	}).Debug("Stored conversation state")
	return nil
}

// Get returns the chat's state, or nil when none is pending
func (s *StateStore) Get(ctx context.Context, chatID int64) (*State, error) {
	data, err := s.client.Get(ctx, stateKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return &state, nil
}

// Clear removes the chat's state
func (s *StateStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, stateKey(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to clear conversation state: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
