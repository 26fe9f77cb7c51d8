package service

import (
	"context"
	"fmt"
	"math/rand"

	"medbook/internal/users/repository"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
	"medbook/pkg/password"
)

var (
	givenNames = []string{
		"Wei", "Li", "Ming", "Hua", "Jing", "Yan", "Lei", "Fang",
		"James", "Mary", "Robert", "Linda", "David", "Susan", "Ahmed", "Fatima",
	}
	familyNames = []string{
		"Zhang", "Wang", "Chen", "Liu", "Smith", "Johnson", "Brown", "Garcia",
		"Kim", "Patel", "Nguyen", "Hassan",
	}
	departments = []string{
		"Cardiology", "Neurology", "Orthopedics", "Pediatrics",
		"Dermatology", "Oncology", "Internal Medicine", "Ophthalmology",
	}
	titles = []string{"Resident", "Attending", "Chief Physician", "Associate Chief Physician"}
	genders = []string{"Male", "Female"}
)

// Generator seeds the user collections with random but plausible records.
// All generated accounts share one bcrypt hash so seeding stays fast.
type Generator struct {
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	cfg      *config.Config
	rng      *rand.Rand
}

func NewGenerator(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	cfg *config.Config,
	seed int64,
) *Generator {
	return &Generator{
		patients: patients,
		doctors:  doctors,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) GeneratePatients(ctx context.Context, count int) ([]*model.Patient, error) {
	if count <= 0 {
		return nil, apperrors.InvalidInput("Count must be positive")
	}

	hashed, err := password.Hash("changeme")
	if err != nil {
		return nil, apperrors.Internal("Failed to hash generated password", err)
	}

	patients := make([]*model.Patient, 0, count)
	for i := 0; i < count; i++ {
		name := g.randomName()
		patients = append(patients, &model.Patient{
			IDCard:      g.randomIDCard(),
			Name:        name,
			Gender:      genders[g.rng.Intn(len(genders))],
			Age:         18 + g.rng.Intn(70),
			Contact:     g.randomPhone(),
			CreditScore: g.cfg.DefaultCreditScore,
			Username:    fmt.Sprintf("patient_%06d", g.rng.Intn(1000000)),
			Password:    hashed,
			Status:      config.StatusApproved,
		})
	}

	if err := g.patients.CreateMany(ctx, patients); err != nil {
		return nil, apperrors.Internal("Failed to insert generated patients", err)
	}

	g.cfg.Log.Info("Generated patients", "count", len(patients))
	return patients, nil
}

func (g *Generator) GenerateDoctors(ctx context.Context, count int) ([]*model.Doctor, error) {
	if count <= 0 {
		return nil, apperrors.InvalidInput("Count must be positive")
	}

	hashed, err := password.Hash("changeme")
	if err != nil {
		return nil, apperrors.Internal("Failed to hash generated password", err)
	}

	doctors := make([]*model.Doctor, 0, count)
	for i := 0; i < count; i++ {
		doctors = append(doctors, &model.Doctor{
			IDCard:     g.randomIDCard(),
			Name:       g.randomName(),
			Department: departments[g.rng.Intn(len(departments))],
			Title:      titles[g.rng.Intn(len(titles))],
			Hospital:   "General Hospital",
			Gender:     genders[g.rng.Intn(len(genders))],
			Age:        28 + g.rng.Intn(40),
			Contact:    g.randomPhone(),
			Username:   fmt.Sprintf("doctor_%06d", g.rng.Intn(1000000)),
			Password:   hashed,
			Status:     config.StatusApproved,
		})
	}

	if err := g.doctors.CreateMany(ctx, doctors); err != nil {
		return nil, apperrors.Internal("Failed to insert generated doctors", err)
	}

	g.cfg.Log.Info("Generated doctors", "count", len(doctors))
	return doctors, nil
}

func (g *Generator) randomName() string {
	return givenNames[g.rng.Intn(len(givenNames))] + " " + familyNames[g.rng.Intn(len(familyNames))]
}

func (g *Generator) randomIDCard() string {
	return fmt.Sprintf("%018d", g.rng.Int63n(1e18))
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("+1%010d", g.rng.Int63n(1e10))
}
