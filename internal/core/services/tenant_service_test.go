package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/core/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

type TenantServiceTestSuite struct {
	suite.Suite
	mockTenantRepo *MockTenantRepository
	service        portssvc.TenantSvcFacade
	tenantID       string
	userID         string
	tenant         domain.Tenant
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.mockTenantRepo = new(MockTenantRepository)
	suite.service = services.NewTenantService(suite.mockTenantRepo)
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.tenant = domain.Tenant{
		TenantID: suite.tenantID,
		Name:     "Springfield Elementary",
		IsActive: true,
	}
}

func (suite *TenantServiceTestSuite) TestAuthorizeMissingTenantContext() {
	err := suite.service.AuthorizeUserAction(context.Background(), suite.userID, "", domain.RoleReadOnly)
	suite.ErrorIs(err, apperrors.ErrMissingTenantContext)
	suite.mockTenantRepo.AssertNotCalled(suite.T(), "FindTenantByID", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestAuthorizeNonMemberForbidden() {
	suite.mockTenantRepo.On("FindTenantByID", mock.Anything, suite.tenantID).Return(&suite.tenant, nil)
	suite.mockTenantRepo.On("FindTenantUser", mock.Anything, suite.tenantID, suite.userID).Return(nil, apperrors.ErrNotFound)

	err := suite.service.AuthorizeUserAction(context.Background(), suite.userID, suite.tenantID, domain.RoleReadOnly)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *TenantServiceTestSuite) TestAuthorizeUnknownTenantNotFound() {
	unknownID := uuid.NewString()
	suite.mockTenantRepo.On("FindTenantByID", mock.Anything, unknownID).Return(nil, apperrors.ErrNotFound)

	err := suite.service.AuthorizeUserAction(context.Background(), suite.userID, unknownID, domain.RoleReadOnly)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *TenantServiceTestSuite) TestAuthorizeRoleHierarchy() {
	tests := []struct {
		name     string
		held     domain.TenantRole
		required domain.TenantRole
		allowed  bool
	}{
		{"admin can write", domain.RoleAdmin, domain.RoleMember, true},
		{"member can write", domain.RoleMember, domain.RoleMember, true},
		{"member can read", domain.RoleMember, domain.RoleReadOnly, true},
		{"readonly cannot write", domain.RoleReadOnly, domain.RoleMember, false},
		{"readonly cannot administer", domain.RoleReadOnly, domain.RoleAdmin, false},
		{"member cannot administer", domain.RoleMember, domain.RoleAdmin, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			mockRepo := new(MockTenantRepository)
			svc := services.NewTenantService(mockRepo)
			mockRepo.On("FindTenantByID", mock.Anything, suite.tenantID).Return(&suite.tenant, nil)
			mockRepo.On("FindTenantUser", mock.Anything, suite.tenantID, suite.userID).Return(&domain.TenantUser{
				UserID:   suite.userID,
				TenantID: suite.tenantID,
				Role:     tc.held,
			}, nil)

			err := svc.AuthorizeUserAction(context.Background(), suite.userID, suite.tenantID, tc.required)
			if tc.allowed {
				suite.NoError(err)
			} else {
				suite.ErrorIs(err, apperrors.ErrForbidden)
			}
		})
	}
}

func (suite *TenantServiceTestSuite) TestRequireWritableLedgerHalted() {
	halted := suite.tenant
	halted.LedgerHalted = true
	suite.mockTenantRepo.On("FindTenantByID", mock.Anything, suite.tenantID).Return(&halted, nil)

	err := suite.service.RequireWritableLedger(context.Background(), suite.tenantID)
	suite.ErrorIs(err, apperrors.ErrLedgerIntegrityViolation)
}

func (suite *TenantServiceTestSuite) TestRequireWritableLedgerOK() {
	suite.mockTenantRepo.On("FindTenantByID", mock.Anything, suite.tenantID).Return(&suite.tenant, nil)

	err := suite.service.RequireWritableLedger(context.Background(), suite.tenantID)
	suite.NoError(err)
}

func (suite *TenantServiceTestSuite) TestCreateTenantMakesCreatorAdmin() {
	suite.mockTenantRepo.On("SaveTenant", mock.Anything, mock.AnythingOfType("domain.Tenant")).Return(nil)
	suite.mockTenantRepo.On("AddUserToTenant", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(membership domain.TenantUser) bool {
		return membership.UserID == suite.userID && membership.Role == domain.RoleAdmin
	})).Return(nil).Once()

	tenant, err := suite.service.CreateTenant(context.Background(), dto.CreateTenantRequest{Name: "Shelbyville High"}, suite.userID)

	suite.NoError(err)
	suite.NotNil(tenant)
	suite.True(tenant.IsActive)
	suite.False(tenant.LedgerHalted)
	suite.mockTenantRepo.AssertExpectations(suite.T())
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}
