package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	userserrors "medbook/internal/users/errors"
	"medbook/internal/users/repository"
	"medbook/internal/users/validator"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
	"medbook/pkg/password"
)

// AuditRecorder is the slice of the audit module the user service needs.
type AuditRecorder interface {
	Record(ctx context.Context, operation, actor, targetKind, targetID string)
}

// VisitLister exposes the one visit query this service depends on, so the
// users module does not import the visits module wholesale.
type VisitLister interface {
	FindByDoctor(ctx context.Context, doctorUsername string) ([]*model.Visit, error)
}

// Account is the current-user read model: exactly one of the role fields
// is populated.
type Account struct {
	Role    string         `json:"role"`
	Patient *model.Patient `json:"patient,omitempty"`
	Doctor  *model.Doctor  `json:"doctor,omitempty"`
	Admin   *model.Admin   `json:"admin,omitempty"`
}

type UserService interface {
	RegisterPatient(ctx context.Context, patient *model.Patient) error
	RegisterDoctor(ctx context.Context, doctor *model.Doctor) error
	RegisterAdmin(ctx context.Context, admin *model.Admin) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	Approve(ctx context.Context, role, id string) error

	UpdatePatient(ctx context.Context, actor, id string, patch *model.PatientPatch) error
	UpdateDoctor(ctx context.Context, actor, id string, patch *model.DoctorPatch) error
	UpdateAdmin(ctx context.Context, actor, id string, patch *model.AdminPatch) error
	UpdateOwnPatientProfile(ctx context.Context, actor string, patch *model.PatientPatch) error
	UpdateOwnDoctorProfile(ctx context.Context, actor string, patch *model.DoctorPatch) error
	Delete(ctx context.Context, actor, role, id string) error

	ListPatients(ctx context.Context, status string) ([]*model.Patient, error)
	ListDoctors(ctx context.Context, status string) ([]*model.Doctor, error)
	ListAdmins(ctx context.Context, status string) ([]*model.Admin, error)
	CurrentUser(ctx context.Context, username string) (*Account, error)

	UpdateCreditScore(ctx context.Context, actor, patientUsername string, score int) error
	PatientsBookedWithDoctor(ctx context.Context, doctorUsername string) ([]*model.Patient, error)
	ChangeAdminPassword(ctx context.Context, username, oldPassword, newPassword string) error

	EnsureDefaultAdmin(ctx context.Context) error
}

type userService struct {
	patients  repository.PatientRepository
	doctors   repository.DoctorRepository
	admins    repository.AdminRepository
	visits    VisitLister
	validator *validator.UserValidator
	audit     AuditRecorder
	cfg       *config.Config
}

func NewUserService(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	admins repository.AdminRepository,
	visits VisitLister,
	userValidator *validator.UserValidator,
	auditRecorder AuditRecorder,
	cfg *config.Config,
) UserService {
	return &userService{
		patients:  patients,
		doctors:   doctors,
		admins:    admins,
		visits:    visits,
		validator: userValidator,
		audit:     auditRecorder,
		cfg:       cfg,
	}
}

func (s *userService) RegisterPatient(ctx context.Context, patient *model.Patient) error {
	if patient.Password == "" {
		return apperrors.InvalidInput("Password cannot be empty")
	}
	patient.Status = config.StatusPending
	if patient.CreditScore == 0 {
		patient.CreditScore = s.cfg.DefaultCreditScore
	}

	if err := s.validator.ValidatePatient(patient); err != nil {
		s.cfg.Log.Warn("Patient validation failed", "username", patient.Username, "error", err)
		return apperrors.Validation("Patient validation failed", map[string]any{"error": err.Error()})
	}

	available, err := s.UsernameAvailable(ctx, patient.Username)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", patient.Username))
	}

	hashed, err := password.Hash(patient.Password)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	patient.Password = hashed

	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", patient.Username))
		}
		s.cfg.Log.Error("Failed to register patient", "username", patient.Username, "error", err)
		return apperrors.Internal("Failed to register patient", err)
	}

	s.cfg.Log.Info("Patient registered", "id", patient.ID, "username", patient.Username)
	return nil
}

func (s *userService) RegisterDoctor(ctx context.Context, doctor *model.Doctor) error {
	if doctor.Password == "" {
		return apperrors.InvalidInput("Password cannot be empty")
	}
	doctor.Status = config.StatusPending

	if err := s.validator.ValidateDoctor(doctor); err != nil {
		s.cfg.Log.Warn("Doctor validation failed", "username", doctor.Username, "error", err)
		return apperrors.Validation("Doctor validation failed", map[string]any{"error": err.Error()})
	}

	available, err := s.UsernameAvailable(ctx, doctor.Username)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", doctor.Username))
	}

	hashed, err := password.Hash(doctor.Password)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	doctor.Password = hashed

	if err := s.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", doctor.Username))
		}
		s.cfg.Log.Error("Failed to register doctor", "username", doctor.Username, "error", err)
		return apperrors.Internal("Failed to register doctor", err)
	}

	s.cfg.Log.Info("Doctor registered", "id", doctor.ID, "username", doctor.Username)
	return nil
}

func (s *userService) RegisterAdmin(ctx context.Context, admin *model.Admin) error {
	if admin.Password == "" {
		return apperrors.InvalidInput("Password cannot be empty")
	}
	admin.Status = config.StatusPending
	admin.FirstLogin = true

	if err := s.validator.ValidateAdmin(admin); err != nil {
		s.cfg.Log.Warn("Admin validation failed", "username", admin.Username, "error", err)
		return apperrors.Validation("Admin validation failed", map[string]any{"error": err.Error()})
	}

	available, err := s.UsernameAvailable(ctx, admin.Username)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", admin.Username))
	}

	hashed, err := password.Hash(admin.Password)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	admin.Password = hashed

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return apperrors.Conflict(fmt.Sprintf("Username %q is already taken", admin.Username))
		}
		s.cfg.Log.Error("Failed to register admin", "username", admin.Username, "error", err)
		return apperrors.Internal("Failed to register admin", err)
	}

	s.cfg.Log.Info("Admin registered", "id", admin.ID, "username", admin.Username)
	return nil
}

// UsernameAvailable checks all three collections; a username is taken if
// any role holds it.
func (s *userService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, apperrors.InvalidInput("Username cannot be empty")
	}

	checks := []func(context.Context, string) (bool, error){
		s.patients.ExistsByUsername,
		s.doctors.ExistsByUsername,
		s.admins.ExistsByUsername,
	}
	for _, check := range checks {
		exists, err := check(ctx, username)
		if err != nil {
			s.cfg.Log.Error("Failed to check username", "username", username, "error", err)
			return false, apperrors.Internal("Failed to check username availability", err)
		}
		if exists {
			return false, nil
		}
	}
	return true, nil
}

func (s *userService) Approve(ctx context.Context, role, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	switch role {
	case config.RolePatient:
		patient, err := s.patients.FindByID(ctx, id)
		if err != nil {
			return s.translateRepoError(err, id)
		}
		patient.Status = config.StatusApproved
		if err := s.patients.Save(ctx, patient); err != nil {
			return s.translateRepoError(err, id)
		}
	case config.RoleDoctor:
		doctor, err := s.doctors.FindByID(ctx, id)
		if err != nil {
			return s.translateRepoError(err, id)
		}
		doctor.Status = config.StatusApproved
		if err := s.doctors.Save(ctx, doctor); err != nil {
			return s.translateRepoError(err, id)
		}
	case config.RoleAdmin:
		admin, err := s.admins.FindByID(ctx, id)
		if err != nil {
			return s.translateRepoError(err, id)
		}
		admin.Status = config.StatusApproved
		if err := s.admins.Save(ctx, admin); err != nil {
			return s.translateRepoError(err, id)
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unknown role: %s", role))
	}

	s.cfg.Log.Info("User approved", "role", role, "id", id)
	return nil
}

func (s *userService) UpdatePatient(ctx context.Context, actor, id string, patch *model.PatientPatch) error {
	if err := s.validator.ValidatePatientPatch(patch); err != nil {
		return apperrors.Validation("Patient update validation failed", map[string]any{"error": err.Error()})
	}

	patient, err := s.patients.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}

	if err := s.applyPatientPatch(patient, patch); err != nil {
		return err
	}
	if err := s.patients.Save(ctx, patient); err != nil {
		return s.translateRepoError(err, id)
	}

	s.audit.Record(ctx, config.OpAdminUpdate, actor, config.RolePatient, id)
	s.cfg.Log.Info("Patient updated", "id", id, "actor", actor)
	return nil
}

func (s *userService) UpdateDoctor(ctx context.Context, actor, id string, patch *model.DoctorPatch) error {
	if err := s.validator.ValidateDoctorPatch(patch); err != nil {
		return apperrors.Validation("Doctor update validation failed", map[string]any{"error": err.Error()})
	}

	doctor, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}

	if err := s.applyDoctorPatch(doctor, patch); err != nil {
		return err
	}
	if err := s.doctors.Save(ctx, doctor); err != nil {
		return s.translateRepoError(err, id)
	}

	s.audit.Record(ctx, config.OpAdminUpdate, actor, config.RoleDoctor, id)
	s.cfg.Log.Info("Doctor updated", "id", id, "actor", actor)
	return nil
}

func (s *userService) UpdateAdmin(ctx context.Context, actor, id string, patch *model.AdminPatch) error {
	if err := s.validator.ValidateAdminPatch(patch); err != nil {
		return apperrors.Validation("Admin update validation failed", map[string]any{"error": err.Error()})
	}

	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}

	if err := s.applyAdminPatch(admin, patch); err != nil {
		return err
	}
	if err := s.admins.Save(ctx, admin); err != nil {
		return s.translateRepoError(err, id)
	}

	s.audit.Record(ctx, config.OpAdminUpdate, actor, config.RoleAdmin, id)
	s.cfg.Log.Info("Admin updated", "id", id, "actor", actor)
	return nil
}

func (s *userService) UpdateOwnPatientProfile(ctx context.Context, actor string, patch *model.PatientPatch) error {
	if err := s.validator.ValidatePatientPatch(patch); err != nil {
		return apperrors.Validation("Patient update validation failed", map[string]any{"error": err.Error()})
	}

	patient, err := s.patients.FindByUsername(ctx, actor)
	if err != nil {
		return s.translateRepoError(err, actor)
	}

	if err := s.applyPatientPatch(patient, patch); err != nil {
		return err
	}
	if err := s.patients.Save(ctx, patient); err != nil {
		return s.translateRepoError(err, actor)
	}

	s.cfg.Log.Info("Patient profile updated", "username", actor)
	return nil
}

func (s *userService) UpdateOwnDoctorProfile(ctx context.Context, actor string, patch *model.DoctorPatch) error {
	if err := s.validator.ValidateDoctorPatch(patch); err != nil {
		return apperrors.Validation("Doctor update validation failed", map[string]any{"error": err.Error()})
	}

	doctor, err := s.doctors.FindByUsername(ctx, actor)
	if err != nil {
		return s.translateRepoError(err, actor)
	}

	if err := s.applyDoctorPatch(doctor, patch); err != nil {
		return err
	}
	if err := s.doctors.Save(ctx, doctor); err != nil {
		return s.translateRepoError(err, actor)
	}

	s.cfg.Log.Info("Doctor profile updated", "username", actor)
	return nil
}

func (s *userService) Delete(ctx context.Context, actor, role, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	var err error
	switch role {
	case config.RolePatient:
		err = s.patients.Delete(ctx, id)
	case config.RoleDoctor:
		err = s.doctors.Delete(ctx, id)
	case config.RoleAdmin:
		err = s.admins.Delete(ctx, id)
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unknown role: %s", role))
	}
	if err != nil {
		return s.translateRepoError(err, id)
	}

	s.audit.Record(ctx, config.OpAdminDelete, actor, role, id)
	s.cfg.Log.Info("User deleted", "role", role, "id", id, "actor", actor)
	return nil
}

func (s *userService) ListPatients(ctx context.Context, status string) ([]*model.Patient, error) {
	patients, err := s.patients.FindByStatus(ctx, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list patients", "status", status, "error", err)
		return nil, apperrors.Internal("Failed to list patients", err)
	}
	for _, p := range patients {
		p.Password = ""
	}
	return patients, nil
}

func (s *userService) ListDoctors(ctx context.Context, status string) ([]*model.Doctor, error) {
	doctors, err := s.doctors.FindByStatus(ctx, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list doctors", "status", status, "error", err)
		return nil, apperrors.Internal("Failed to list doctors", err)
	}
	for _, d := range doctors {
		d.Password = ""
	}
	return doctors, nil
}

func (s *userService) ListAdmins(ctx context.Context, status string) ([]*model.Admin, error) {
	admins, err := s.admins.FindByStatus(ctx, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list admins", "status", status, "error", err)
		return nil, apperrors.Internal("Failed to list admins", err)
	}
	for _, a := range admins {
		a.Password = ""
	}
	return admins, nil
}

// CurrentUser resolves a username against the three collections in turn.
func (s *userService) CurrentUser(ctx context.Context, username string) (*Account, error) {
	if username == "" {
		return nil, apperrors.InvalidInput("Username cannot be empty")
	}

	patient, err := s.patients.FindByUsername(ctx, username)
	if err == nil {
		patient.Password = ""
		return &Account{Role: config.RolePatient, Patient: patient}, nil
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to resolve current user", err)
	}

	doctor, err := s.doctors.FindByUsername(ctx, username)
	if err == nil {
		doctor.Password = ""
		return &Account{Role: config.RoleDoctor, Doctor: doctor}, nil
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to resolve current user", err)
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err == nil {
		admin.Password = ""
		return &Account{Role: config.RoleAdmin, Admin: admin}, nil
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to resolve current user", err)
	}

	return nil, apperrors.NotFound(fmt.Sprintf("No user found with username %q", username))
}

// UpdateCreditScore lets a doctor adjust a patient's credit score.
func (s *userService) UpdateCreditScore(ctx context.Context, actor, patientUsername string, score int) error {
	if score < 0 {
		return apperrors.InvalidInput("Credit score cannot be negative")
	}

	if _, err := s.doctors.FindByUsername(ctx, actor); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.Forbidden("Only doctors can adjust credit scores")
		}
		return apperrors.Internal("Failed to verify actor", err)
	}

	if err := s.patients.UpdateCreditScore(ctx, patientUsername, score); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("No patient found with username %q", patientUsername))
		}
		s.cfg.Log.Error("Failed to update credit score",
			"patient", patientUsername,
			"score", score,
			"error", err,
		)
		return apperrors.Internal("Failed to update credit score", err)
	}

	s.cfg.Log.Info("Credit score updated", "patient", patientUsername, "score", score, "actor", actor)
	return nil
}

// PatientsBookedWithDoctor returns the distinct patients holding a slot on
// any of the doctor's visits, sorted by username.
func (s *userService) PatientsBookedWithDoctor(ctx context.Context, doctorUsername string) ([]*model.Patient, error) {
	if doctorUsername == "" {
		return nil, apperrors.InvalidInput("Doctor username cannot be empty")
	}

	visits, err := s.visits.FindByDoctor(ctx, doctorUsername)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor visits", "doctor", doctorUsername, "error", err)
		return nil, apperrors.Internal("Failed to load doctor visits", err)
	}

	seen := make(map[string]struct{})
	var usernames []string
	for _, v := range visits {
		for _, booked := range v.BookedBy {
			if _, ok := seen[booked]; ok {
				continue
			}
			seen[booked] = struct{}{}
			usernames = append(usernames, booked)
		}
	}
	if len(usernames) == 0 {
		return []*model.Patient{}, nil
	}
	sort.Strings(usernames)

	patients, err := s.patients.FindByUsernames(ctx, usernames)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked patients", "doctor", doctorUsername, "error", err)
		return nil, apperrors.Internal("Failed to load booked patients", err)
	}
	for _, p := range patients {
		p.Password = ""
	}
	return patients, nil
}

// ChangeAdminPassword verifies the current password, stores the new hash
// and clears the first-login flag.
func (s *userService) ChangeAdminPassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.InvalidInput("New password cannot be empty")
	}
	if newPassword == oldPassword {
		return apperrors.InvalidInput("New password must differ from the current one")
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return s.translateRepoError(err, username)
	}

	if !password.Verify(admin.Password, oldPassword) {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	admin.Password = hashed
	admin.FirstLogin = false

	if err := s.admins.Save(ctx, admin); err != nil {
		return s.translateRepoError(err, username)
	}

	s.cfg.Log.Info("Admin password changed", "username", username)
	return nil
}

// EnsureDefaultAdmin creates the bootstrap admin/admin account if no admin
// with that username exists. The account is flagged for a forced password
// change on first login.
func (s *userService) EnsureDefaultAdmin(ctx context.Context) error {
	exists, err := s.admins.ExistsByUsername(ctx, "admin")
	if err != nil {
		return apperrors.Internal("Failed to check for default admin", err)
	}
	if exists {
		return nil
	}

	hashed, err := password.Hash("admin")
	if err != nil {
		return apperrors.Internal("Failed to hash default admin password", err)
	}

	admin := &model.Admin{
		IDCard:     "admin",
		Name:       "Default Administrator",
		Username:   "admin",
		Password:   hashed,
		Status:     config.StatusApproved,
		FirstLogin: true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return nil
		}
		return apperrors.Internal("Failed to create default admin", err)
	}

	s.cfg.Log.Info("Default admin account created", "username", admin.Username)
	return nil
}

func (s *userService) applyPatientPatch(patient *model.Patient, patch *model.PatientPatch) error {
	if patch.Name != nil {
		patient.Name = *patch.Name
	}
	if patch.MedicalRecord != nil {
		patient.MedicalRecord = *patch.MedicalRecord
	}
	if patch.Age != nil {
		patient.Age = *patch.Age
	}
	if patch.Gender != nil {
		patient.Gender = *patch.Gender
	}
	if patch.Address != nil {
		patient.Address = *patch.Address
	}
	if patch.Contact != nil {
		patient.Contact = *patch.Contact
	}
	if patch.Password != nil {
		hashed, err := password.Hash(*patch.Password)
		if err != nil {
			return apperrors.Internal("Failed to hash password", err)
		}
		patient.Password = hashed
	}
	return nil
}

func (s *userService) applyDoctorPatch(doctor *model.Doctor, patch *model.DoctorPatch) error {
	if patch.Name != nil {
		doctor.Name = *patch.Name
	}
	if patch.Department != nil {
		doctor.Department = *patch.Department
	}
	if patch.Title != nil {
		doctor.Title = *patch.Title
	}
	if patch.Hospital != nil {
		doctor.Hospital = *patch.Hospital
	}
	if patch.Specialty != nil {
		doctor.Specialty = *patch.Specialty
	}
	if patch.Age != nil {
		doctor.Age = *patch.Age
	}
	if patch.Gender != nil {
		doctor.Gender = *patch.Gender
	}
	if patch.Address != nil {
		doctor.Address = *patch.Address
	}
	if patch.Contact != nil {
		doctor.Contact = *patch.Contact
	}
	if patch.Password != nil {
		hashed, err := password.Hash(*patch.Password)
		if err != nil {
			return apperrors.Internal("Failed to hash password", err)
		}
		doctor.Password = hashed
	}
	return nil
}

func (s *userService) applyAdminPatch(admin *model.Admin, patch *model.AdminPatch) error {
	if patch.Name != nil {
		admin.Name = *patch.Name
	}
	if patch.Address != nil {
		admin.Address = *patch.Address
	}
	if patch.Contact != nil {
		admin.Contact = *patch.Contact
	}
	if patch.Password != nil {
		hashed, err := password.Hash(*patch.Password)
		if err != nil {
			return apperrors.Internal("Failed to hash password", err)
		}
		admin.Password = hashed
	}
	return nil
}

func (s *userService) translateRepoError(err error, id string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		s.cfg.Log.Error("User store operation failed", "id", id, "error", err)
		return apperrors.Internal("User store operation failed", err)
	}
}
