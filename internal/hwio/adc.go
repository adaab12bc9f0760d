package hwio

import (
	"fmt"
	"sync"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/Mosical/pico-venti/internal/util"
)

// ADCReader reads averaged raw samples from the platform's analog
// channels. Averaging a handful of back-to-back samples removes most of
// the jitter inherent to cheap ADC frontends.
type ADCReader struct {
	platform platform.Platform
	samples  int

	mu       sync.Mutex
	channels map[int]platform.ADCChannel
}

func NewADCReader(p platform.Platform, samples int) *ADCReader {
	if samples < 1 {
		samples = 1
	}
	return &ADCReader{
		platform: p,
		samples:  samples,
		channels: map[int]platform.ADCChannel{},
	}
}

// Read returns the average of the configured number of raw samples.
func (r *ADCReader) Read(channel int) (float64, error) {
	adc, err := r.channel(channel)
	if err != nil {
		return 0, err
	}

	window := util.CreateRollingWindow(r.samples)
	for i := 0; i < r.samples; i++ {
		raw, err := adc.Read()
		if err != nil {
			return 0, fmt.Errorf("adc channel %d: %w", channel, err)
		}
		window.Append(float64(raw))
	}
	return util.GetWindowAvg(window), nil
}

func (r *ADCReader) channel(channel int) (platform.ADCChannel, error) {
	if channel < 0 || channel >= configuration.MaxAdcChannels {
		return nil, fmt.Errorf("invalid adc channel %d", channel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	adc, ok := r.channels[channel]
	if !ok {
		opened, err := r.platform.ADCChannel(channel)
		if err != nil {
			return nil, err
		}
		r.channels[channel] = opened
		adc = opened
	}
	return adc, nil
}
