package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/services"
)

const maxRetries = 3

// Pool drains the session-finalize queue. Teardown beacons fire while the
// browser unloads, so the HTTP handler only enqueues; workers here settle
// the session with retries until the write sticks.
type Pool struct {
	redis       *redis.Client
	sessions    *services.SessionService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, sessions *services.SessionService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		sessions:    sessions,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d finalize worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.FinalizeQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.FinalizeJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse finalize job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("finalize_lock:%s", job.SessionID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this session
		}

		log.Printf("Worker %d: finalizing session %s (reason: %s)", id, job.SessionID, job.Reason)

		if err := p.finalize(ctx, &job); err != nil {
			p.handleFailure(&job, err)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) finalize(ctx context.Context, job *models.FinalizeJob) error {
	_, err := p.sessions.Finalize(ctx, job.SessionID, job.UserID, job.Reason)
	if errors.Is(err, engine.ErrSessionNotFound) {
		// Nothing live and nothing settled: the session was already
		// finalized and reaped before the beacon arrived, or never
		// existed. Either way there is nothing left to do.
		log.Printf("Finalize job for session %s found no session to settle", job.SessionID)
		return nil
	}
	return err
}

func (p *Pool) handleFailure(job *models.FinalizeJob, err error) {
	job.RetryCount++

	if job.RetryCount < maxRetries {
		log.Printf("Finalize for session %s failed (attempt %d): %v; retrying", job.SessionID, job.RetryCount, err)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), services.FinalizeQueue, string(jobBytes))
		})
		return
	}

	// Max retries reached. The idle reaper will pick the session up on its
	// next sweep, so giving up here loses nothing permanently.
	log.Printf("Finalize for session %s failed permanently: %v", job.SessionID, err)
}
