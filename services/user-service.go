package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/utils"
)

type UserService struct {
	UserCollection *mongo.Collection
	JWTService     *JWTService
	BlackList      map[string]bool
	MailBreaker    *gobreaker.CircuitBreaker
}

func NewUserService(
	userCollection *mongo.Collection,
	jwtService *JWTService,
	blackList map[string]bool,
	mailBreaker *gobreaker.CircuitBreaker,
) *UserService {
	return &UserService{
		UserCollection: userCollection,
		JWTService:     jwtService,
		BlackList:      blackList,
		MailBreaker:    mailBreaker,
	}
}

// sendEmail pushes delivery through the circuit breaker. Mail failures are
// reported to the caller, who decides whether they abort the operation.
func (s *UserService) sendEmail(to, subject, body string) error {
	_, err := s.MailBreaker.Execute(func() (interface{}, error) {
		return nil, utils.SendEmail(to, subject, body)
	})
	return err
}

// ValidatePassword enforces the password policy: length, character classes
// and the common-password blacklist.
func (s *UserService) ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidation("password must be at least 8 characters long")
	}

	hasUppercase := false
	hasDigit := false
	for _, char := range password {
		if char >= 'A' && char <= 'Z' {
			hasUppercase = true
		}
		if char >= '0' && char <= '9' {
			hasDigit = true
		}
	}
	if !hasUppercase {
		return apperrors.NewValidation("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return apperrors.NewValidation("password must contain at least one number")
	}

	specialChars := "!@#$%^&*.,"
	hasSpecial := false
	for _, char := range password {
		if strings.ContainsRune(specialChars, char) {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return apperrors.NewValidation("password must contain at least one special character")
	}

	if s.BlackList[password] {
		return apperrors.NewValidation("password is too common, please choose a stronger one")
	}

	return nil
}

// RegisterUser creates an inactive account and mails a verification code.
func (s *UserService) RegisterUser(ctx context.Context, user models.User) error {
	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": user.Email}).Decode(&existing); err == nil {
		return apperrors.NewConflict("user with this email already exists")
	}

	if err := s.ValidatePassword(user.Password); err != nil {
		return err
	}

	user.Name = html.EscapeString(user.Name)
	user.LastName = html.EscapeString(user.LastName)
	user.Email = html.EscapeString(user.Email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashedPassword)

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Role = models.RoleEmployee
	user.Status = models.UserInactive
	user.AssignedTasks = []primitive.ObjectID{}
	user.CreatedProjects = []primitive.ObjectID{}
	user.VerificationCode = fmt.Sprintf("%06d", rand.Intn(1000000))
	user.VerificationExpiry = now.Add(15 * time.Minute)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %v", err)
	}

	subject := "Your Verification Code"
	body := fmt.Sprintf("Your verification code is %s. Please enter it within 15 minutes.", user.VerificationCode)
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logging.Logger.Warnf("Event ID: VERIFICATION_EMAIL_FAILED, Description: Could not send verification email to %s: %v", user.Email, err)
	}

	return nil
}

// VerifyUser activates an account when the submitted code matches and has
// not expired.
func (s *UserService) VerifyUser(ctx context.Context, email, code string) error {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return apperrors.NewNotFound("user not found")
	}
	if user.Status == models.UserActive {
		return apperrors.NewConflict("account already verified")
	}
	if user.VerificationCode != code {
		return apperrors.NewValidation("invalid verification code")
	}
	if time.Now().After(user.VerificationExpiry) {
		return apperrors.NewValidation("verification code has expired")
	}

	update := bson.M{
		"$set":   bson.M{"status": models.UserActive, "updatedAt": time.Now()},
		"$unset": bson.M{"verificationCode": "", "verificationExpiry": ""},
	}
	if _, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		return fmt.Errorf("failed to activate user: %v", err)
	}
	return nil
}

// LoginUser checks credentials and issues an access/refresh token pair.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*models.User, string, string, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, "", "", apperrors.NewUnauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", apperrors.NewUnauthorized("invalid email or password")
	}

	if !user.IsActive() {
		return nil, "", "", apperrors.NewUnauthorized("account is not active")
	}

	accessToken, err := s.JWTService.GenerateAccessToken(&user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate access token: %v", err)
	}
	refreshToken, err := s.JWTService.GenerateRefreshToken(&user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate refresh token: %v", err)
	}

	user.Password = ""
	return &user, accessToken, refreshToken, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair.
func (s *UserService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	claims, err := s.JWTService.ValidateToken(refreshToken, TokenRefresh)
	if err != nil {
		return nil, "", "", apperrors.NewUnauthorized("invalid refresh token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, "", "", apperrors.NewUnauthorized("invalid refresh token")
	}

	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, "", "", apperrors.NewUnauthorized("user not found")
	}
	if !user.IsActive() {
		return nil, "", "", apperrors.NewUnauthorized("account is not active")
	}

	accessToken, err := s.JWTService.GenerateAccessToken(&user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate access token: %v", err)
	}
	newRefresh, err := s.JWTService.GenerateRefreshToken(&user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate refresh token: %v", err)
	}

	user.Password = ""
	return &user, accessToken, newRefresh, nil
}

// SendPasswordResetLink mails a reset token. Responds identically whether or
// not the email exists so the endpoint cannot be used to enumerate accounts.
func (s *UserService) SendPasswordResetLink(ctx context.Context, email string) error {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		logging.Logger.Infof("Event ID: PASSWORD_RESET_UNKNOWN_EMAIL, Description: Password reset requested for unknown email %s", email)
		return nil
	}

	token, err := s.JWTService.GeneratePasswordResetToken(user.Email)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %v", err)
	}

	subject := "Password Reset"
	body := fmt.Sprintf("Use this token to reset your password: %s", token)
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send password reset email: %v", err)
	}
	return nil
}

// ResetPassword applies a new password when the reset token verifies.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.JWTService.ValidateToken(token, TokenReset)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}

	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %v", err)
	}

	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"email": claims.Email},
		bson.M{"$set": bson.M{"password": string(hashed), "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFound("user not found")
	}
	return nil
}

// AcceptInvite turns an invite token into an active account.
func (s *UserService) AcceptInvite(ctx context.Context, token, name, password string) (*models.User, error) {
	claims, err := s.JWTService.ValidateToken(token, TokenInvite)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired invite token")
	}

	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": claims.Email}).Decode(&existing); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists")
	}

	if err := s.ValidatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	role := claims.Role
	if role == "" {
		role = models.RoleEmployee
	}

	now := time.Now()
	user := models.User{
		ID:              primitive.NewObjectID(),
		Name:            html.EscapeString(name),
		Email:           claims.Email,
		Password:        string(hashed),
		Role:            role,
		Status:          models.UserActive,
		AssignedTasks:   []primitive.ObjectID{},
		CreatedProjects: []primitive.ObjectID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	user.Password = ""
	return &user, nil
}

// InviteUser mints an invite token for a future account and emails it to the
// invitee. No user record is created yet; email uniqueness is enforced when
// the invite is accepted. The token is returned so the caller can hand it out
// even when the mail relay is down.
func (s *UserService) InviteUser(ctx context.Context, email string, role models.Role) (string, error) {
	if email == "" {
		return "", apperrors.NewValidation("email is required")
	}
	if role == "" {
		role = models.RoleEmployee
	}
	if role != models.RoleAdmin && role != models.RoleEmployee {
		return "", apperrors.NewValidation("invalid role: %s", role)
	}

	token, err := s.JWTService.GenerateInviteToken(email, role)
	if err != nil {
		return "", fmt.Errorf("failed to generate invite token: %v", err)
	}

	subject := "You have been invited"
	body := fmt.Sprintf("You have been invited to join. Use this token to create your account: %s. The invitation expires in 72 hours.", token)
	if err := s.sendEmail(email, subject, body); err != nil {
		logging.Logger.Warnf("Event ID: INVITE_EMAIL_FAILED, Description: Could not send invite email to %s: %v", email, err)
	}

	return token, nil
}

// CreateUser is the admin path: the account is active immediately and an
// invite email with a temporary password is sent.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": user.Email}).Decode(&existing); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists")
	}

	if user.Role != models.RoleAdmin && user.Role != models.RoleEmployee {
		return nil, apperrors.NewValidation("invalid role: %s", user.Role)
	}

	tempPassword := utils.GenerateRandomPassword()
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Name = html.EscapeString(user.Name)
	user.LastName = html.EscapeString(user.LastName)
	user.Password = string(hashed)
	user.Status = models.UserActive
	user.AssignedTasks = []primitive.ObjectID{}
	user.CreatedProjects = []primitive.ObjectID{}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	subject := "Your account has been created"
	body := fmt.Sprintf("Your temporary password is: %s. Please change it after your first login.", tempPassword)
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logging.Logger.Warnf("Event ID: ACCOUNT_EMAIL_FAILED, Description: Could not send account email to %s: %v", user.Email, err)
	}

	user.Password = ""
	return &user, nil
}

// GetUserByID returns a user with the password hash stripped.
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, apperrors.NewNotFound("user not found")
	}
	user.Password = ""
	return &user, nil
}

// UpdateProfile applies the mutable profile fields to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, updates bson.M) (*models.User, error) {
	allowed := map[string]bool{
		"name": true, "lastName": true, "department": true,
		"position": true, "avatar": true, "phone": true,
	}
	set := bson.M{}
	for k, v := range updates {
		if allowed[k] {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return nil, apperrors.NewValidation("no updatable fields provided")
	}
	set["updatedAt"] = time.Now()

	result, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.NewNotFound("user not found")
	}
	return s.GetUserByID(ctx, id)
}

// ChangePassword verifies the old password before applying the new one.
func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, oldPassword, newPassword string) error {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return apperrors.NewNotFound("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.NewValidation("old password is incorrect")
	}

	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %v", err)
	}

	_, err = s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": string(hashed), "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}
	return nil
}

// ListTenants returns all employee-role users.
func (s *UserService) ListTenants(ctx context.Context) ([]models.User, error) {
	cursor, err := s.UserCollection.Find(ctx, bson.M{"role": models.RoleEmployee})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tenants: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode tenants: %v", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// DeactivateUser performs the soft delete: status flips to inactive, the
// record and its email stay intact for audit linkage.
func (s *UserService) DeactivateUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.UserInactive, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFound("user not found")
	}
	logging.Logger.Infof("Event ID: USER_DEACTIVATED, Description: User %s deactivated", id.Hex())
	return nil
}
