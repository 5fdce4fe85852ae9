package models

const (
	FacilityG = "g"
	FacilityH = "h"
)

const (
	// FirstBookingHour первый час, который можно забронировать
	FirstBookingHour = 8
	// LastBookingHour последний час, который можно забронировать
	LastBookingHour = 18

	// SlotsPerDay количество часовых слотов в дне
	SlotsPerDay = LastBookingHour - FirstBookingHour + 1

	// NumWeeks количество недель в периоде бронирования
	NumWeeks = 4
	// DaysPerWeek рабочие дни недели (пн-пт)
	DaysPerWeek = 5

	// DefaultQuota бронирований на пользователя начиная с текущей недели
	DefaultQuota = 10

	// DefaultExpirationDays сколько дней хранятся прошедшие бронирования
	DefaultExpirationDays = 30
)

// DateLayout is the wall-clock layout used for persisted slot times.
const DateLayout = "2006-01-02 15:04:05"

// DefaultFacilities returns the facilities the application ships with.
func DefaultFacilities() []Facility {
	return []Facility{
		{Code: FacilityG, Name: "Lernecke G"},
		{Code: FacilityH, Name: "Lernecke H"},
	}
}
