package gatherweather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 15, 12, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T, config *Config, cache Cache) *Handler {
	h := NewHandler(config, cache, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func openWeatherServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Hyderabad,IN", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const hotReply = `{"name":"Hyderabad","main":{"temp":37.2,"humidity":30},"weather":[{"main":"Clear","description":"clear sky"}]}`

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		reading    models.WeatherReading
		conditions []string
		multiplier map[string]float64
		high       []string
		low        []string
		boost      float64
		optimal    bool
	}{
		{
			name:       "rain",
			reading:    models.WeatherReading{Temperature: 28, Humidity: 65, Main: "rain", Description: "moderate rain"},
			conditions: []string{CondRainy},
			multiplier: map[string]float64{
				tables.Umbrellas: 1.8, tables.Raincoats: 1.8, tables.Tea: 1.8, tables.HotSnacks: 1.8,
				tables.IceCream: 0.2, tables.FreshFruits: 0.2, tables.ColdDrinks: 1.0,
			},
			high:    []string{tables.Tea, tables.HotSnacks, tables.Umbrellas},
			low:     []string{tables.IceCream, tables.FreshFruits},
			boost:   1.8,
			optimal: true,
		},
		{
			name:       "hot and humid",
			reading:    models.WeatherReading{Temperature: 38, Humidity: 75, Main: "clear", Description: "clear sky"},
			conditions: []string{CondHot, CondHumid},
			multiplier: map[string]float64{
				tables.ColdDrinks: 2.08, tables.FreshFruits: 2.08, tables.IceCream: 1.6,
				tables.Tea: 0.4, tables.HotSnacks: 0.28, tables.Samosa: 1.0,
			},
			high:    []string{tables.ColdDrinks, tables.IceCream, tables.FreshFruits},
			low:     []string{tables.Tea, tables.HotSnacks},
			boost:   2.08,
			optimal: false,
		},
		{
			name:       "cold",
			reading:    models.WeatherReading{Temperature: 15, Humidity: 50, Main: "clear", Description: "mist"},
			conditions: []string{CondCold},
			multiplier: map[string]float64{
				tables.Tea: 1.4, tables.Samosa: 1.4, tables.HotSnacks: 1.4,
				tables.ColdDrinks: 0.6, tables.IceCream: 0.6,
			},
			high:  []string{tables.Tea, tables.Samosa, tables.HotSnacks},
			low:   []string{tables.ColdDrinks, tables.IceCream},
			boost: 1.4,
		},
		{
			name:       "mild",
			reading:    models.WeatherReading{Temperature: 28, Humidity: 60, Main: "clear", Description: "few clouds"},
			conditions: []string{},
			multiplier: map[string]float64{tables.ColdDrinks: 1.0, tables.Umbrellas: 1.0},
			high:       []string{},
			low:        []string{},
			boost:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Analyze(tt.reading)
			assert.Equal(t, tt.conditions, sig.Conditions)
			for product, m := range tt.multiplier {
				assert.Equal(t, m, sig.Impacts[product].Multiplier, product)
			}
			assert.Equal(t, tt.high, sig.HighDemand)
			assert.Equal(t, tt.low, sig.LowDemand)
			assert.Equal(t, tt.boost, sig.WeatherBoost)
			assert.Equal(t, tt.optimal, sig.OptimalForBusiness)
			assert.Len(t, sig.Impacts, len(evaluatedProducts))
		})
	}
}

func TestAnalyze_ReasonsAndLevels(t *testing.T) {
	sig := Analyze(models.WeatherReading{Temperature: 28, Humidity: 65, Main: "rain", Description: "light rain"})

	assert.Equal(t, []string{"+80% due to rainy"}, sig.Impacts[tables.Tea].Reasons)
	assert.Equal(t, []string{"-80% due to rainy"}, sig.Impacts[tables.IceCream].Reasons)
	assert.Empty(t, sig.Impacts[tables.Samosa].Reasons)
	assert.Equal(t, "High", sig.Impacts[tables.Umbrellas].Level)
	assert.Equal(t, "Low", sig.Impacts[tables.IceCream].Level)

	cold := Analyze(models.WeatherReading{Temperature: 10, Humidity: 40})
	assert.Equal(t, "Medium", cold.Impacts[tables.Tea].Level)
	assert.Equal(t, 1.0, cold.BoostFor(tables.ColdDrinks))
	assert.Equal(t, 1.4, cold.BoostFor(tables.Tea))
}

func TestSimulator_Deterministic(t *testing.T) {
	s := NewSimulator(42)
	a := s.Reading("Hyderabad", fixedNow)
	b := s.Reading("hyderabad", fixedNow)
	a.City, b.City = "", ""
	assert.Equal(t, a, b)
	assert.Equal(t, models.WeatherSourceSimulated, a.Source)
}

func TestSimulator_SeasonalRanges(t *testing.T) {
	s := NewSimulator(7)
	for m := time.January; m <= time.December; m++ {
		sea := seasonFor(m)
		for _, hour := range []int{2, 12} {
			for day := 1; day <= 28; day += 3 {
				at := time.Date(2024, m, day, hour, 0, 0, 0, time.UTC)
				r := s.Reading("Hyderabad", at)

				if hour == 12 {
					assert.GreaterOrEqual(t, r.Temperature, sea.tempMin-2)
					assert.LessOrEqual(t, r.Temperature, sea.tempMax+3)
				} else {
					assert.GreaterOrEqual(t, r.Temperature, sea.tempMin-8)
					assert.LessOrEqual(t, r.Temperature, sea.tempMax-3)
				}
				assert.GreaterOrEqual(t, r.Humidity, int(sea.humidMin))
				assert.LessOrEqual(t, r.Humidity, int(sea.humidMax))
				assert.Contains(t, sea.descriptions, r.Description)
				assert.Equal(t, strings.Contains(r.Description, "rain"), r.Main == "rain")
			}
		}
	}
}

func TestExecute_SimulatedWithoutKey(t *testing.T) {
	h := newTestHandler(t, LoadConfig(), nil)

	out, err := h.Execute(context.Background(), &Input{Date: "2024-08-02"})
	require.NoError(t, err)

	r := out.WeatherSignal.Reading
	assert.Equal(t, models.WeatherSourceSimulated, r.Source)
	assert.Equal(t, "Hyderabad", r.City)
	assert.Equal(t, time.Date(2024, 8, 2, 12, 30, 0, 0, time.UTC), r.ObservedAt)
	assert.Contains(t, monsoon.descriptions, r.Description)
}

func TestExecute_LiveReading(t *testing.T) {
	server := openWeatherServer(t, http.StatusOK, hotReply, nil)
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	out, err := newTestHandler(t, cfg, nil).Execute(context.Background(), &Input{})
	require.NoError(t, err)

	sig := out.WeatherSignal
	assert.Equal(t, models.WeatherSourceLive, sig.Reading.Source)
	assert.Equal(t, 37.2, sig.Reading.Temperature)
	assert.Equal(t, 30, sig.Reading.Humidity)
	assert.Equal(t, "clear", sig.Reading.Main)
	assert.Equal(t, []string{CondHot}, sig.Conditions)
	assert.Equal(t, 1.6, sig.WeatherBoost)
}

func TestExecute_OtherDaysAreSimulated(t *testing.T) {
	mr := miniredis.RunT(t)

	var hits int32
	server := openWeatherServer(t, http.StatusOK, hotReply, &hits)
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := newTestHandler(t, cfg, NewRedisCache(client, cfg.CacheTTL))

	for _, date := range []string{"2024-07-16", "2024-07-14"} {
		out, err := h.Execute(context.Background(), &Input{Date: date})
		require.NoError(t, err)
		assert.Equal(t, models.WeatherSourceSimulated, out.WeatherSignal.Reading.Source, date)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.Empty(t, mr.Keys())

	out, err := h.Execute(context.Background(), &Input{Date: "2024-07-15"})
	require.NoError(t, err)
	assert.Equal(t, models.WeatherSourceLive, out.WeatherSignal.Reading.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestExecute_FallbackToSimulator(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"cod":500}`},
		{"unauthorized", http.StatusUnauthorized, `{"cod":401}`},
		{"not json", http.StatusOK, `<html>`},
		{"missing fields", http.StatusOK, `{"main":{},"weather":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := openWeatherServer(t, tt.status, tt.body, nil)
			cfg := LoadConfig()
			cfg.BaseURL = server.URL
			cfg.APIKey = "test-key"

			out, err := newTestHandler(t, cfg, nil).Execute(context.Background(), &Input{})
			require.NoError(t, err)
			assert.Equal(t, models.WeatherSourceSimulated, out.WeatherSignal.Reading.Source)
			assert.Equal(t, NewSimulator(cfg.Seed).Reading("Hyderabad", fixedNow), out.WeatherSignal.Reading)
		})
	}
}

func TestExecute_RedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	var hits int32
	server := openWeatherServer(t, http.StatusOK, hotReply, &hits)
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := newTestHandler(t, cfg, NewRedisCache(client, cfg.CacheTTL))

	first, err := h.Execute(context.Background(), &Input{City: "Hyderabad"})
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), &Input{City: "hyderabad"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first.WeatherSignal.Reading.Temperature, second.WeatherSignal.Reading.Temperature)

	key := cacheKey("Hyderabad", fixedNow)
	assert.Equal(t, "weather:hyderabad:2024071512", key)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, cfg.CacheTTL, mr.TTL(key))

	var cached models.WeatherReading
	raw, err := mr.Get(key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, models.WeatherSourceLive, cached.Source)
}

func TestExecute_RedisErrorIsAMiss(t *testing.T) {
	server := openWeatherServer(t, http.StatusOK, hotReply, nil)
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	client, mock := redismock.NewClientMock()
	key := cacheKey("Hyderabad", fixedNow)
	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	mock.Regexp().ExpectSet(key, `.*OpenWeather API.*`, cfg.CacheTTL).SetVal("OK")

	h := newTestHandler(t, cfg, NewRedisCache(client, cfg.CacheTTL))
	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, models.WeatherSourceLive, out.WeatherSignal.Reading.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLRUCache_Expiry(t *testing.T) {
	c, err := NewLRUCache(2, time.Minute)
	require.NoError(t, err)

	clock := fixedNow
	c.now = func() time.Time { return clock }

	r := models.WeatherReading{City: "Hyderabad", Temperature: 30}
	c.Set(context.Background(), "a", r)

	got, ok := c.Get(context.Background(), "a")
	assert.True(t, ok)
	assert.Equal(t, r, got)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get(context.Background(), "a")
	assert.False(t, ok)

	c.Set(context.Background(), "a", r)
	c.Set(context.Background(), "b", r)
	c.Set(context.Background(), "c", r)
	_, ok = c.Get(context.Background(), "a")
	assert.False(t, ok, "evicted")
}

type chatFunc func(ctx context.Context, req genai.ChatRequest) (string, error)

func (f chatFunc) Chat(ctx context.Context, req genai.ChatRequest) (string, error) {
	return f(ctx, req)
}

func newAdvisedHandler(t *testing.T, llm genai.Chatter) *Handler {
	h := NewHandler(LoadConfig(), nil, llm, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

const weatherAdviceReply = `Weather advice:
1. Strategy: sell cold drinks and ice cream from 11 AM, the heat peaks after noon
2. Customers stay in the shade and buy chilled items in small quantities
3. Location: stand near bus stops and office gates where people wait
4. Risk: stock melts fast, keep ice boxes ready`

func TestExecute_WeatherAdvice(t *testing.T) {
	var got genai.ChatRequest
	h := newAdvisedHandler(t, chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
		got = req
		return weatherAdviceReply, nil
	}))

	out, err := h.Execute(context.Background(), &Input{Message: "garmi mein kya bechu?"})
	require.NoError(t, err)

	in := out.WeatherSignal.Insights
	require.NotNil(t, in)
	assert.Equal(t, "Strategy: sell cold drinks and ice cream from 11 AM, the heat peaks after noon", in.SellingStrategy)
	assert.Equal(t, "Customers stay in the shade and buy chilled items in small quantities", in.CustomerInsights)
	assert.Equal(t, "Location: stand near bus stops and office gates where people wait", in.LocationAdvice)

	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "garmi mein kya bechu?")
	assert.Contains(t, got.Messages[1].Content, "Temperature:")
}

func TestExecute_WeatherAdviceNeedsMessage(t *testing.T) {
	calls := 0
	h := newAdvisedHandler(t, chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
		calls++
		return weatherAdviceReply, nil
	}))

	out, err := h.Execute(context.Background(), &Input{Message: "   "})
	require.NoError(t, err)
	assert.Nil(t, out.WeatherSignal.Insights)
	assert.Zero(t, calls)
}

func TestExecute_WeatherAdviceDegrades(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"timeout", "", genai.ErrTimeout},
		{"request failed", "", genai.ErrRequestFailed},
		{"nothing usable", "OK", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAdvisedHandler(t, chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
				return tt.reply, tt.err
			}))
			plain := newTestHandler(t, LoadConfig(), nil)

			out, err := h.Execute(context.Background(), &Input{Message: "baarish mein kya bechu?"})
			require.NoError(t, err)
			want, err := plain.Execute(context.Background(), &Input{Message: "baarish mein kya bechu?"})
			require.NoError(t, err)

			assert.Nil(t, out.WeatherSignal.Insights)
			assert.Equal(t, want.WeatherSignal, out.WeatherSignal)
		})
	}
}
