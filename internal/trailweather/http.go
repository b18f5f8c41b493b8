package trailweather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	rt "github.com/evanhutnik/trailweather/internal/route"
	"github.com/evanhutnik/trailweather/internal/table"
	t "github.com/evanhutnik/trailweather/internal/types"
)

var validate = validator.New()

type pointRequest struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RouteResponse struct {
	RunID     string     `json:"runId"`
	Route     string     `json:"route,omitempty"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Segments  int        `json:"segments"`
	Failed    int        `json:"failed"`
	Rows      []RouteRow `json:"rows"`
}

type RouteRow struct {
	Segment       t.Segment  `json:"segment"`
	Time          time.Time  `json:"time"`
	Temperature   *float64   `json:"temperature_2m"`
	Precipitation *float64   `json:"precipitation"`
	WindSpeed     *float64   `json:"wind_speed_10m"`
	Sunrise       *time.Time `json:"sunrise,omitempty"`
	Sunset        *time.Time `json:"sunset,omitempty"`
}

type PointResponse struct {
	Latitude         float64                `json:"latitude"`
	Longitude        float64                `json:"longitude"`
	Elevation        float64                `json:"elevation"`
	Timezone         string                 `json:"timezone"`
	UtcOffsetSeconds int                    `json:"utc_offset_seconds"`
	Current          map[string]interface{} `json:"current,omitempty"`
	Minutely15       *SeriesResponse        `json:"minutely_15,omitempty"`
	Hourly           *SeriesResponse        `json:"hourly,omitempty"`
	Daily            *SeriesResponse        `json:"daily,omitempty"`
}

type SeriesResponse struct {
	Time   []time.Time           `json:"time"`
	Values map[string][]*float64 `json:"values"`
}

func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /route", s.RouteHandler)
	mux.HandleFunc("GET /route/latest", s.LatestHandler)
	mux.HandleFunc("GET /point", s.PointHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		s.writeResponse(w, map[string]string{"status": "ok", "service": "trailweather"})
	})
	return mux
}

// Start serves the API until ctx is cancelled.
func (s *Service) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.Logger.Infow("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Service) RouteHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := s.routeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, resp)
}

func (s *Service) routeRequest(r *http.Request) (*RouteResponse, error) {
	opts := RouteOptions{}
	if sample := r.URL.Query().Get("sample"); sample != "" {
		d, err := time.ParseDuration(sample)
		if err != nil || d < 0 {
			return nil, CodeError{code: 400, msg: "'sample' parameter must be a non-negative duration such as 15m"}
		}
		if d == 0 {
			d = -1
		}
		opts.Sample = d
	}
	reverseGeo, err := strconv.ParseBool(r.URL.Query().Get("reverseGeo"))
	if err == nil {
		opts.ReverseGeo = reverseGeo
	}

	route, err := rt.Load(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		return nil, CodeError{code: 400, msg: "Invalid route: " + err.Error()}
	}

	res, err := s.RouteWeather(r.Context(), route, opts)
	if err != nil {
		if errors.Is(err, rt.ErrNoSegments) {
			return nil, CodeError{code: 400, msg: err.Error()}
		}
		return nil, err
	}
	return routeResponse(res), nil
}

func (s *Service) LatestHandler(w http.ResponseWriter, r *http.Request) {
	res := s.Latest()
	if res == nil {
		s.writeError(w, CodeError{code: 404, msg: "No route weather has been fetched yet."})
		return
	}
	s.writeResponse(w, routeResponse(res))
}

func (s *Service) PointHandler(w http.ResponseWriter, r *http.Request) {
	req := pointRequest{
		Lat: r.URL.Query().Get("lat"),
		Lon: r.URL.Query().Get("lon"),
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, CodeError{code: 400, msg: "'lat' and 'lon' must be valid coordinates"})
		return
	}
	lat, _ := strconv.ParseFloat(req.Lat, 64)
	lon, _ := strconv.ParseFloat(req.Lon, 64)

	forecast, err := s.PointForecast(r.Context(), t.Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, pointResponse(forecast))
}

func routeResponse(res *RouteResult) *RouteResponse {
	resp := &RouteResponse{
		RunID:     res.RunID,
		Route:     res.Route,
		FetchedAt: res.FetchedAt,
		Segments:  res.Segments,
		Failed:    res.Failed,
		Rows:      []RouteRow{},
	}
	for _, row := range table.AlongRoute(res.Records) {
		resp.Rows = append(resp.Rows, RouteRow{
			Segment:       row.Segment,
			Time:          row.Time,
			Temperature:   row.Temperature,
			Precipitation: row.Precipitation,
			WindSpeed:     row.WindSpeed,
			Sunrise:       row.Sunrise,
			Sunset:        row.Sunset,
		})
	}
	return resp
}

func pointResponse(f *t.Forecast) *PointResponse {
	resp := &PointResponse{
		Latitude:         f.Latitude,
		Longitude:        f.Longitude,
		Elevation:        f.Elevation,
		Timezone:         f.Timezone,
		UtcOffsetSeconds: f.UtcOffsetSeconds,
		Minutely15:       seriesResponse(f.Minutely15),
		Hourly:           seriesResponse(f.Hourly),
		Daily:            seriesResponse(f.Daily),
	}
	if f.Current != nil {
		resp.Current = map[string]interface{}{"time": f.Current.Time}
		for name, v := range f.Current.Values {
			resp.Current[name] = v
		}
	}
	return resp
}

func seriesResponse(s *t.Series) *SeriesResponse {
	if s == nil {
		return nil
	}
	return &SeriesResponse{Time: s.Time, Values: s.Values}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	var codeErr CodeError
	if errors.As(err, &codeErr) {
		bodyBytes, _ := json.Marshal(ErrorResponse{Error: codeErr.Error()})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(codeErr.code)
		io.WriteString(w, string(bodyBytes[:]))
	} else {
		s.Logger.Errorw(err.Error(), "action", "writeError")
		w.WriteHeader(500)
		io.WriteString(w, "Internal server error")
	}
}

func (s *Service) writeResponse(w http.ResponseWriter, resp interface{}) {
	bodyBytes, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	io.WriteString(w, string(bodyBytes[:]))
}
