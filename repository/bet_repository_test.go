package repository

import (
	"context"
	"testing"
	"time"

	"betmate/domain/entities"
	"betmate/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type betRepoFixture struct {
	userRepo *UserRepository
	betRepo  *BetRepository
	group    *entities.Group
	creator  *entities.User
	member   *entities.User
}

func setupBetRepoFixture(t *testing.T, testDB *testutil.TestDatabase) *betRepoFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	groupRepo := NewGroupRepository(testDB.DB)
	membershipRepo := NewMembershipRepository(testDB.DB)

	creator, err := userRepo.Create(ctx, "creator", "Creator", 1000)
	require.NoError(t, err)
	member, err := userRepo.Create(ctx, "member", "Member", 1000)
	require.NoError(t, err)

	group := testutil.CreateTestGroup(creator.ID, "Bet Group")
	require.NoError(t, groupRepo.Create(ctx, group))
	require.NoError(t, membershipRepo.Create(ctx, testutil.CreateTestMembership(group.ID, creator.ID, entities.MembershipRoleAdmin)))
	require.NoError(t, membershipRepo.Create(ctx, testutil.CreateTestMembership(group.ID, member.ID, entities.MembershipRoleMember)))

	return &betRepoFixture{
		userRepo: userRepo,
		betRepo:  NewBetRepository(testDB.DB),
		group:    group,
		creator:  creator,
		member:   member,
	}
}

func TestBetRepository_CreateWithOptions(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	f := setupBetRepoFixture(t, testDB)
	ctx := context.Background()

	bet := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Who wins tonight")
	options := testutil.CreateTestOptions()
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, bet, options))

	assert.NotZero(t, bet.ID)
	assert.NotZero(t, options[0].ID)
	assert.NotZero(t, options[1].ID)

	detail, err := f.betRepo.GetDetailByID(ctx, bet.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Who wins tonight", detail.Bet.Title)
	require.Len(t, detail.Options, 2)
	assert.Equal(t, "Yes", detail.Options[0].OptionText)
	assert.Equal(t, "No", detail.Options[1].OptionText)
	assert.Empty(t, detail.Participations)

	missing, err := f.betRepo.GetDetailByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBetRepository_SaveParticipation(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	f := setupBetRepoFixture(t, testDB)
	ctx := context.Background()

	bet := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Upsert test")
	options := testutil.CreateTestOptions()
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, bet, options))

	participation := testutil.CreateTestParticipation(bet.ID, f.member.ID, options[0].ID, 100)
	require.NoError(t, f.betRepo.SaveParticipation(ctx, participation))
	firstID := participation.ID
	assert.NotZero(t, firstID)

	t.Run("saving again updates the same row", func(t *testing.T) {
		updated := testutil.CreateTestParticipation(bet.ID, f.member.ID, options[1].ID, 250)
		updated.Insured = true
		require.NoError(t, f.betRepo.SaveParticipation(ctx, updated))
		assert.Equal(t, firstID, updated.ID)

		fetched, err := f.betRepo.GetParticipation(ctx, bet.ID, f.member.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, int64(250), fetched.Amount)
		assert.Equal(t, options[1].ID, *fetched.OptionID)
		assert.True(t, fetched.Insured)
	})

	t.Run("missing participation returns nil", func(t *testing.T) {
		fetched, err := f.betRepo.GetParticipation(ctx, bet.ID, f.creator.ID)
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})

	t.Run("option totals persist", func(t *testing.T) {
		require.NoError(t, f.betRepo.UpdateOptionTotal(ctx, options[1].ID, 250))

		detail, err := f.betRepo.GetDetailByID(ctx, bet.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), detail.Options[0].TotalAmount)
		assert.Equal(t, int64(250), detail.Options[1].TotalAmount)
	})

	t.Run("resolution results persist", func(t *testing.T) {
		fetched, err := f.betRepo.GetParticipation(ctx, bet.ID, f.member.ID)
		require.NoError(t, err)

		fetched.Status = entities.ParticipationStatusWon
		payout := int64(400)
		fetched.PayoutAmount = &payout
		require.NoError(t, f.betRepo.UpdateParticipationResults(ctx, []*entities.BetParticipation{fetched}))

		again, err := f.betRepo.GetParticipation(ctx, bet.ID, f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.ParticipationStatusWon, again.Status)
		require.NotNil(t, again.PayoutAmount)
		assert.Equal(t, int64(400), *again.PayoutAmount)
	})
}

func TestBetRepository_ResolversAndVotes(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	f := setupBetRepoFixture(t, testDB)
	ctx := context.Background()

	bet := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Vote test")
	bet.ResolutionMethod = entities.ResolutionMethodParticipantVote
	options := testutil.CreateTestOptions()
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, bet, options))

	t.Run("resolver assignment is idempotent", func(t *testing.T) {
		require.NoError(t, f.betRepo.AddResolver(ctx, bet.ID, f.member.ID))
		require.NoError(t, f.betRepo.AddResolver(ctx, bet.ID, f.member.ID))

		isResolver, err := f.betRepo.IsResolver(ctx, bet.ID, f.member.ID)
		require.NoError(t, err)
		assert.True(t, isResolver)

		isResolver, err = f.betRepo.IsResolver(ctx, bet.ID, f.creator.ID)
		require.NoError(t, err)
		assert.False(t, isResolver)
	})

	t.Run("vote upsert replaces the previous choice", func(t *testing.T) {
		vote := &entities.ResolutionVote{BetID: bet.ID, VoterID: f.member.ID, OptionID: options[0].ID}
		require.NoError(t, f.betRepo.UpsertVote(ctx, vote))

		changed := &entities.ResolutionVote{BetID: bet.ID, VoterID: f.member.ID, OptionID: options[1].ID}
		require.NoError(t, f.betRepo.UpsertVote(ctx, changed))
		assert.Equal(t, vote.ID, changed.ID)

		otherVote := &entities.ResolutionVote{BetID: bet.ID, VoterID: f.creator.ID, OptionID: options[1].ID}
		require.NoError(t, f.betRepo.UpsertVote(ctx, otherVote))

		votes, err := f.betRepo.ListVotes(ctx, bet.ID)
		require.NoError(t, err)
		require.Len(t, votes, 2)
		assert.Equal(t, options[1].ID, votes[0].OptionID)
		assert.Equal(t, options[1].ID, votes[1].OptionID)
	})
}

func TestBetRepository_ListAndExpiry(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	f := setupBetRepoFixture(t, testDB)
	ctx := context.Background()

	expired := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Deadline passed")
	expired.ClosesAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, expired, testutil.CreateTestOptions()))

	upcoming := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Still open")
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, upcoming, testutil.CreateTestOptions()))

	closed := testutil.CreateTestBet(f.group.ID, f.creator.ID, "Already closed")
	closed.ClosesAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.betRepo.CreateWithOptions(ctx, closed, testutil.CreateTestOptions()))
	closed.Status = entities.BetStatusClosed
	require.NoError(t, f.betRepo.Update(ctx, closed))

	t.Run("expired open bets", func(t *testing.T) {
		bets, err := f.betRepo.GetExpiredOpenBets(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, bets, 1)
		assert.Equal(t, expired.ID, bets[0].ID)
	})

	t.Run("list by group filters on status", func(t *testing.T) {
		open, err := f.betRepo.ListByGroup(ctx, f.group.ID, entities.BetStatusOpen, 50)
		require.NoError(t, err)
		assert.Len(t, open, 2)

		all, err := f.betRepo.ListByGroup(ctx, f.group.ID, "", 50)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		limited, err := f.betRepo.ListByGroup(ctx, f.group.ID, "", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}
