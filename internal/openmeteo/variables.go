package openmeteo

import (
	"github.com/evanhutnik/trailweather/internal/types"
)

var (
	RouteMinutely15 = []string{"temperature_2m", "relative_humidity_2m", "apparent_temperature", "rain",
		"freezing_level_height", "weather_code"}
	RouteHourly = []string{"temperature_2m", "relative_humidity_2m", "apparent_temperature",
		"precipitation_probability", "precipitation", "rain", "showers", "snowfall", "snow_depth",
		"cloud_cover", "cloud_cover_low", "cloud_cover_mid", "cloud_cover_high", "visibility",
		"wind_speed_10m", "wind_speed_80m", "wind_speed_120m", "wind_speed_180m",
		"wind_direction_10m", "wind_direction_80m", "wind_direction_120m", "wind_direction_180m",
		"wind_gusts_10m"}
	RouteDaily = []string{"sunrise", "sunset"}

	PointCurrent    = []string{"temperature_2m", "rain", "showers", "weather_code"}
	PointMinutely15 = RouteMinutely15
	PointHourly     = []string{"temperature_2m", "relative_humidity_2m", "apparent_temperature",
		"precipitation_probability", "precipitation", "rain", "showers", "snowfall", "snow_depth",
		"cloud_cover", "cloud_cover_low", "cloud_cover_mid", "cloud_cover_high", "visibility",
		"et0_fao_evapotranspiration", "vapour_pressure_deficit",
		"wind_speed_10m", "wind_speed_80m", "wind_speed_120m", "wind_speed_180m",
		"wind_direction_10m", "wind_direction_80m", "wind_direction_120m", "wind_direction_180m",
		"wind_gusts_10m", "temperature_80m", "temperature_120m", "temperature_180m",
		"soil_temperature_0cm", "soil_temperature_6cm", "soil_temperature_18cm", "soil_temperature_54cm",
		"soil_moisture_0_to_1cm", "soil_moisture_1_to_3cm", "soil_moisture_3_to_9cm",
		"soil_moisture_9_to_27cm", "soil_moisture_27_to_81cm",
		"uv_index", "uv_index_clear_sky", "is_day", "sunshine_duration",
		"freezing_level_height", "boundary_layer_height"}
	PointDaily = RouteDaily
)

const PointForecastDays = 16

// RouteQuery requests the variables plotted along a route for one segment.
// Timestamped segments are limited to the UTC day they were recorded on. The
// API reads start_date and end_date in the requested timezone, so those
// queries are made in GMT.
func RouteQuery(seg types.Segment) Query {
	q := Query{
		Coordinates: seg.Coordinates,
		Minutely15:  RouteMinutely15,
		Hourly:      RouteHourly,
		Daily:       RouteDaily,
		Timezone:    "auto",
	}
	if seg.HasTime() {
		day := seg.Time.UTC()
		q.Timezone = "GMT"
		q.StartDate = day
		q.EndDate = day
	}
	return q
}

func PointQuery(coords types.Coordinates) Query {
	return Query{
		Coordinates:  coords,
		Current:      PointCurrent,
		Minutely15:   PointMinutely15,
		Hourly:       PointHourly,
		Daily:        PointDaily,
		Timezone:     "auto",
		ForecastDays: PointForecastDays,
	}
}
