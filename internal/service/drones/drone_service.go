package drones

import (
	"context"
	"errors"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
)

type DroneUseCase interface {
	Register(ctx context.Context, input RegisterDroneInput) (*domain.Drone, error)
	GetByID(ctx context.Context, id int64) (*domain.Drone, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Drone, error)
}

type RegisterDroneInput struct {
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	SerialNumber string  `json:"serial_number"`
	MaxAltitude  float64 `json:"max_altitude"`
	MaxSpeed     float64 `json:"max_speed"`
	WeightKg     float64 `json:"weight_kg"`
	OwnerID      int64   `json:"owner_id"`
}

const (
	defaultMaxAltitude = 120.0 // meters, regulatory ceiling for small UAS
	defaultMaxSpeed    = 15.0  // m/s
)

type DroneService struct {
	drones repository.DroneRepository
}

func NewDroneService(drones repository.DroneRepository) *DroneService {
	return &DroneService{drones: drones}
}

func (s *DroneService) Register(ctx context.Context, input RegisterDroneInput) (*domain.Drone, error) {
	if input.Brand == "" || input.Model == "" {
		return nil, errors.New("brand and model are required")
	}
	if input.SerialNumber == "" {
		return nil, errors.New("serial number is required")
	}
	if input.OwnerID <= 0 {
		return nil, errors.New("owner id is required")
	}

	drone := &domain.Drone{
		Brand:        input.Brand,
		Model:        input.Model,
		SerialNumber: input.SerialNumber,
		MaxAltitude:  input.MaxAltitude,
		MaxSpeed:     input.MaxSpeed,
		WeightKg:     input.WeightKg,
		OwnerID:      input.OwnerID,
	}
	if drone.MaxAltitude <= 0 {
		drone.MaxAltitude = defaultMaxAltitude
	}
	if drone.MaxSpeed <= 0 {
		drone.MaxSpeed = defaultMaxSpeed
	}

	if err := s.drones.Create(ctx, drone); err != nil {
		return nil, err
	}
	return drone, nil
}

func (s *DroneService) GetByID(ctx context.Context, id int64) (*domain.Drone, error) {
	return s.drones.GetByID(ctx, id)
}

func (s *DroneService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Drone, error) {
	return s.drones.ListByOwner(ctx, ownerID)
}

var _ DroneUseCase = (*DroneService)(nil)
