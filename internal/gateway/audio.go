package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/telephony"
)

// greetingCache synthesizes each tenant's greeting once and serves the
// bytes on every call after that. Greetings only change on restart.
type greetingCache struct {
	synth telephony.Synthesizer

	mu    sync.Mutex
	audio map[string][]byte
}

func newGreetingCache(synth telephony.Synthesizer) *greetingCache {
	return &greetingCache{synth: synth, audio: make(map[string][]byte)}
}

// greetingText is what the receptionist opens every call with.
func greetingText(tenant *config.TenantConfig) string {
	if tenant.Greeting != "" {
		return tenant.Greeting
	}
	return fmt.Sprintf("Thank you for calling %s. How can I help you today?", tenant.Name)
}

// Get returns the greeting audio for a tenant, synthesizing on first use.
func (c *greetingCache) Get(ctx context.Context, tenant *config.TenantConfig) ([]byte, error) {
	if c.synth == nil {
		return nil, fmt.Errorf("no synthesizer configured")
	}

	c.mu.Lock()
	cached, ok := c.audio[tenant.ID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	audio, err := c.synth.Synthesize(ctx, greetingText(tenant))
	if err != nil {
		return nil, fmt.Errorf("synthesizing greeting: %w", err)
	}

	c.mu.Lock()
	c.audio[tenant.ID] = audio
	c.mu.Unlock()
	return audio, nil
}

// replyAudioEvict is how long an unfetched reply clip survives. Twilio
// fetches within a second or two; anything older belongs to a call that
// hung up mid-generation.
const replyAudioEvict = 5 * time.Minute

type replyClip struct {
	audio   []byte
	created time.Time
}

// replyAudioCache holds per-turn TTS clips between the generation worker
// and Twilio's fetch. Each clip is served once and then discarded.
type replyAudioCache struct {
	mu    sync.Mutex
	clips map[string]replyClip
}

func newReplyAudioCache() *replyAudioCache {
	return &replyAudioCache{clips: make(map[string]replyClip)}
}

// Put stores a clip and returns its reference id.
func (c *replyAudioCache) Put(audio []byte) string {
	id := uuid.New().String()
	now := time.Now()
	c.mu.Lock()
	for k, clip := range c.clips {
		if now.Sub(clip.created) > replyAudioEvict {
			delete(c.clips, k)
		}
	}
	c.clips[id] = replyClip{audio: audio, created: now}
	c.mu.Unlock()
	return id
}

// Take removes and returns a clip by id.
func (c *replyAudioCache) Take(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.clips[id]
	if ok {
		delete(c.clips, id)
	}
	return clip.audio, ok
}
