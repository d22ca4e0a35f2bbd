// seed inserts development sample data for local testing.
// Idempotent: skips everything if the demo org already exists.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	assistancedomain "reliefbase/backend/internal/assistance/domain"
	assistancerepo "reliefbase/backend/internal/assistance/repository"
	beneficiarydomain "reliefbase/backend/internal/beneficiary/domain"
	beneficiaryrepo "reliefbase/backend/internal/beneficiary/repository"
	"reliefbase/backend/internal/config"
	"reliefbase/backend/internal/db"
	deliverydomain "reliefbase/backend/internal/delivery/domain"
	deliveryrepo "reliefbase/backend/internal/delivery/repository"
	membershipdomain "reliefbase/backend/internal/membership/domain"
	membershiprepo "reliefbase/backend/internal/membership/repository"
	orgdomain "reliefbase/backend/internal/organization/domain"
	organizationrepo "reliefbase/backend/internal/organization/repository"
	projectdomain "reliefbase/backend/internal/project/domain"
	projectrepo "reliefbase/backend/internal/project/repository"
	"reliefbase/backend/internal/review"

	"github.com/google/uuid"
)

const demoOrgUID = "00000000-0000-4000-8000-000000000001"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	orgs := organizationrepo.NewPostgresRepository(pool)
	members := membershiprepo.NewPostgresRepository(pool)
	projects := projectrepo.NewPostgresRepository(pool)
	assistances := assistancerepo.NewPostgresRepository(pool)
	beneficiaries := beneficiaryrepo.NewPostgresRepository(pool)
	deliveries := deliveryrepo.NewPostgresRepository(pool)

	if existing, err := orgs.GetOrganizationByUID(ctx, demoOrgUID); err != nil {
		log.Fatalf("check org: %v", err)
	} else if existing != nil {
		log.Println("seed: demo org already present, nothing to do")
		return
	}

	orgID, err := orgs.CreateOrganization(ctx, &orgdomain.Org{UID: demoOrgUID, Name: "Demo Relief Org"})
	if err != nil {
		log.Fatalf("create org: %v", err)
	}

	var adminID, collaboratorID, enumeratorID int64
	err = db.InTx(ctx, pool, func(tx *sql.Tx) error {
		var err error
		if adminID, err = members.CreateMembership(ctx, tx, &membershipdomain.Membership{
			UserID: 1, OrgID: orgID, Role: membershipdomain.RoleAdmin, Status: membershipdomain.StatusActive,
		}); err != nil {
			return err
		}
		if collaboratorID, err = members.CreateMembership(ctx, tx, &membershipdomain.Membership{
			UserID: 2, OrgID: orgID, Role: membershipdomain.RoleCollaborator, Status: membershipdomain.StatusActive,
		}); err != nil {
			return err
		}
		if enumeratorID, err = members.CreateMembership(ctx, tx, &membershipdomain.Membership{
			UserID: 3, OrgID: orgID, Role: membershipdomain.RoleEnumerator, Status: membershipdomain.StatusActive,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("create memberships: %v", err)
	}
	if err := orgs.SetCreator(ctx, orgID, adminID); err != nil {
		log.Fatalf("set founding admin: %v", err)
	}

	foodParcelID, err := assistances.Create(ctx, &assistancedomain.Assistance{
		OrgID: orgID, Name: "Food parcel", Unit: "box",
	})
	if err != nil {
		log.Fatalf("create assistance: %v", err)
	}
	hygieneKitID, err := assistances.Create(ctx, &assistancedomain.Assistance{
		OrgID: orgID, Name: "Hygiene kit", Unit: "kit",
	})
	if err != nil {
		log.Fatalf("create assistance: %v", err)
	}

	var projectID int64
	err = db.InTx(ctx, pool, func(tx *sql.Tx) error {
		var err error
		projectID, err = projects.Create(ctx, tx, &projectdomain.Project{
			UID:         uuid.New().String(),
			OrgID:       orgID,
			Name:        "Winterization 2026",
			StartDate:   time.Now().AddDate(0, -1, 0),
			EndDate:     time.Now().AddDate(0, 2, 0),
			TargetCount: 500,
		})
		if err != nil {
			return err
		}
		if err := projects.InsertMembers(ctx, tx, projectID, []projectdomain.Member{
			{MembershipID: collaboratorID, Role: projectdomain.MemberRoleCollaborator},
			{MembershipID: enumeratorID, Role: projectdomain.MemberRoleEnumerator},
		}); err != nil {
			return err
		}
		return projects.InsertAssistances(ctx, tx, projectID, []projectdomain.AssistanceRef{
			{AssistanceID: foodParcelID},
			{AssistanceID: hygieneKitID},
		})
	})
	if err != nil {
		log.Fatalf("create project: %v", err)
	}

	var beneficiaryID int64
	err = db.InTx(ctx, pool, func(tx *sql.Tx) error {
		var err error
		beneficiaryID, err = beneficiaries.Create(ctx, tx, &beneficiarydomain.Beneficiary{
			ProjectID:             projectID,
			FamilyCode:            "FAM-0001",
			HeadName:              "Amal Haddad",
			Phone:                 "+961-3-000000",
			Address:               "Tripoli, Zone 4",
			CreatedByMembershipID: enumeratorID,
			ReviewStatus:          review.StatusPending,
		})
		if err != nil {
			return err
		}
		birthYear := int32(2014)
		return beneficiaries.InsertMembers(ctx, tx, beneficiaryID, []beneficiarydomain.Member{
			{Name: "Rami Haddad", Relationship: "son", Gender: "male", BirthYear: &birthYear},
		})
	})
	if err != nil {
		log.Fatalf("create beneficiary: %v", err)
	}

	err = db.InTx(ctx, pool, func(tx *sql.Tx) error {
		deliveryID, err := deliveries.Create(ctx, tx, &deliverydomain.Delivery{
			ProjectID:             projectID,
			BeneficiaryID:         beneficiaryID,
			DeliveryDate:          time.Now().AddDate(0, 0, -2),
			CreatedByMembershipID: enumeratorID,
			ReviewStatus:          review.StatusPending,
		})
		if err != nil {
			return err
		}
		return deliveries.InsertItems(ctx, tx, deliveryID, []deliverydomain.Item{
			{AssistanceID: foodParcelID, Quantity: 1},
			{AssistanceID: hygieneKitID, Quantity: 2},
		})
	})
	if err != nil {
		log.Fatalf("create delivery: %v", err)
	}

	log.Printf("seed: org=%d project=%d admin=%d collaborator=%d enumerator=%d",
		orgID, projectID, adminID, collaboratorID, enumeratorID)
}
