package gatherweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"margadarshak/internal/models"
)

var ErrWeatherFetchFailed = errors.New("WEATHER_FETCH_FAILED")

// Provider returns the weather for a city at a point in time.
type Provider interface {
	Fetch(ctx context.Context, city string, at time.Time) (models.WeatherReading, error)
}

// OpenWeather reads current conditions from the OpenWeather API.
type OpenWeather struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOpenWeather(baseURL, apiKey string, timeout time.Duration) *OpenWeather {
	return &OpenWeather{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type owResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func (o *OpenWeather) Fetch(ctx context.Context, city string, at time.Time) (models.WeatherReading, error) {
	if o.apiKey == "" {
		return models.WeatherReading{}, fmt.Errorf("%w: api key not configured", ErrWeatherFetchFailed)
	}

	q := url.Values{}
	q.Set("q", city+",IN")
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("%w: %v", ErrWeatherFetchFailed, err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("%w: %v", ErrWeatherFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.WeatherReading{}, fmt.Errorf("%w: status %d", ErrWeatherFetchFailed, resp.StatusCode)
	}

	var body owResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.WeatherReading{}, fmt.Errorf("%w: decode: %v", ErrWeatherFetchFailed, err)
	}
	if body.Main.Temp == nil || body.Main.Humidity == nil || len(body.Weather) == 0 {
		return models.WeatherReading{}, fmt.Errorf("%w: incomplete reading", ErrWeatherFetchFailed)
	}

	name := body.Name
	if name == "" {
		name = city
	}
	return models.WeatherReading{
		City:        name,
		Temperature: *body.Main.Temp,
		Humidity:    int(*body.Main.Humidity),
		Main:        strings.ToLower(body.Weather[0].Main),
		Description: body.Weather[0].Description,
		Source:      models.WeatherSourceLive,
		ObservedAt:  at,
	}, nil
}

// Simulator produces plausible Hyderabad weather. The same seed, city and
// hour always yield the same reading.
type Simulator struct {
	seed int64
}

func NewSimulator(seed int64) *Simulator {
	return &Simulator{seed: seed}
}

type season struct {
	tempMin, tempMax   float64
	humidMin, humidMax float64
	descriptions       []string
}

var (
	summer  = season{32, 42, 40, 70, []string{"clear sky", "few clouds", "haze"}}
	monsoon = season{25, 32, 70, 90, []string{"moderate rain", "light rain", "overcast clouds"}}
	winter  = season{20, 30, 50, 75, []string{"clear sky", "few clouds", "mist"}}
)

func seasonFor(m time.Month) season {
	switch {
	case m >= time.March && m <= time.June:
		return summer
	case m >= time.July && m <= time.September:
		return monsoon
	}
	return winter
}

func (s *Simulator) Fetch(_ context.Context, city string, at time.Time) (models.WeatherReading, error) {
	return s.Reading(city, at), nil
}

func (s *Simulator) Reading(city string, at time.Time) models.WeatherReading {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	hourKey := int64(at.Year())*1_000_000 + int64(at.Month())*10_000 + int64(at.Day())*100 + int64(at.Hour())
	r := rand.New(rand.NewSource(s.seed + int64(h.Sum64()>>1) + hourKey))

	uniform := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }

	sea := seasonFor(at.Month())
	temp := uniform(sea.tempMin, sea.tempMax)
	humidity := int(uniform(sea.humidMin, sea.humidMax))
	desc := sea.descriptions[r.Intn(len(sea.descriptions))]

	if at.Hour() >= 6 && at.Hour() <= 18 {
		temp += uniform(-2, 3)
	} else {
		temp -= uniform(3, 8)
	}

	main := "clear"
	if strings.Contains(desc, "rain") {
		main = "rain"
	}

	return models.WeatherReading{
		City:        city,
		Temperature: models.RoundTo(temp, 1),
		Humidity:    humidity,
		Main:        main,
		Description: desc,
		Source:      models.WeatherSourceSimulated,
		ObservedAt:  at,
	}
}
