package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/session"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SubmissionService drives a workout from draft to reviewed submission.
type SubmissionService interface {
	// Drafts
	Start(ctx context.Context, actor domain.Actor, exerciseIDs []string, note string) (*session.Draft, error)
	LoadForEdit(ctx context.Context, actor domain.Actor, submissionID string) (*session.Draft, error)
	GetDraft(ctx context.Context, actor domain.Actor, draftID string) (*session.Draft, error)
	UpdateDraft(ctx context.Context, actor domain.Actor, draftID string, exerciseIDs []string, note *string) (*session.Draft, error)
	AddMedia(ctx context.Context, actor domain.Actor, draftID string, content []byte, contentType, name string) (session.Item, error)
	RemoveMedia(ctx context.Context, actor domain.Actor, draftID, itemID string) error
	Discard(ctx context.Context, actor domain.Actor, draftID string) error
	Finalize(ctx context.Context, actor domain.Actor, draftID string) (*domain.Submission, error)

	// Submitted records
	Review(ctx context.Context, actor domain.Actor, submissionID, feedback string, points int) (*domain.Submission, error)
	DeleteVideo(ctx context.Context, actor domain.Actor, submissionID, ref string) (*domain.Submission, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.Submission, error)
	Get(ctx context.Context, actor domain.Actor, submissionID string) (*domain.Submission, error)
	ResolveVideo(ctx context.Context, actor domain.Actor, submissionID string, index int) (string, error)
}

type submissionService struct {
	subRepo  repository.SubmissionRepository
	userRepo repository.UserRepository
	plans    PlanService
	messages MessageService
	store    storage.BlobStore
	drafts   *session.Registry
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	plans PlanService,
	messages MessageService,
	store storage.BlobStore,
	drafts *session.Registry,
) SubmissionService {
	return &submissionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		plans:    plans,
		messages: messages,
		store:    store,
		drafts:   drafts,
	}
}

// === Drafts ===

// Start opens an empty draft for the given exercises.
func (s *submissionService) Start(ctx context.Context, actor domain.Actor, exerciseIDs []string, note string) (*session.Draft, error) {
	if !actor.IsTrainee() {
		return nil, ErrNotTrainee
	}
	planID, err := s.plans.BindSession(ctx, actor.ID, exerciseIDs)
	if err != nil {
		return nil, err
	}
	d := s.drafts.Open(actor.ID, planID, exerciseIDs, note)
	log.Debug().Str("draftId", d.ID).Str("traineeId", actor.ID).Str("planId", planID).Msg("Draft opened")
	return d, nil
}

// LoadForEdit re-opens a pending submission as a draft, pulling its clips back in.
// Clips that cannot be fetched are skipped.
func (s *submissionService) LoadForEdit(ctx context.Context, actor domain.Actor, submissionID string) (*session.Draft, error) {
	// 1. Fetch and check ownership/state
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.TraineeID != actor.ID {
		return nil, ErrNotOwner
	}
	if !sub.IsPending() {
		return nil, ErrNotPending
	}

	// 2. Open a draft bound to the record
	d := s.drafts.Open(actor.ID, sub.PlanID, sub.ExerciseIDs, sub.TraineeNote)
	d.EditingID = sub.ID
	d.Timestamp = sub.Timestamp
	d.Version = sub.Version

	// 3. Re-add every live clip, in order
	for _, raw := range sub.VideoIDs {
		ref := s.store.Parse(raw)
		if !ref.Live() {
			continue
		}
		if _, err := d.Media.AddFromExisting(ctx, ref); err != nil {
			log.Warn().Err(err).Str("submissionId", sub.ID).Str("ref", raw).Msg("Skipping clip that could not be loaded")
		}
	}
	return d, nil
}

func (s *submissionService) GetDraft(_ context.Context, actor domain.Actor, draftID string) (*session.Draft, error) {
	return s.draftFor(actor, draftID)
}

func (s *submissionService) UpdateDraft(ctx context.Context, actor domain.Actor, draftID string, exerciseIDs []string, note *string) (*session.Draft, error) {
	d, err := s.draftFor(actor, draftID)
	if err != nil {
		return nil, err
	}
	if exerciseIDs != nil {
		if _, err := s.plans.BindSession(ctx, actor.ID, exerciseIDs); err != nil {
			return nil, err
		}
	}
	if err := d.Update(exerciseIDs, note); err != nil {
		return nil, draftError(err)
	}
	return d, nil
}

func (s *submissionService) AddMedia(_ context.Context, actor domain.Actor, draftID string, content []byte, contentType, name string) (session.Item, error) {
	d, err := s.draftFor(actor, draftID)
	if err != nil {
		return session.Item{}, err
	}
	if len(content) == 0 {
		return session.Item{}, ErrEmptyMedia
	}
	item, err := d.AddLocal(content, contentType, name)
	if err != nil {
		return session.Item{}, draftError(err)
	}
	return item, nil
}

func (s *submissionService) RemoveMedia(_ context.Context, actor domain.Actor, draftID, itemID string) error {
	d, err := s.draftFor(actor, draftID)
	if err != nil {
		return err
	}
	removed, err := d.RemoveItem(itemID)
	if err != nil {
		return draftError(err)
	}
	if !removed {
		return ErrMediaNotFound
	}
	return nil
}

func (s *submissionService) Discard(_ context.Context, actor domain.Actor, draftID string) error {
	if _, err := s.draftFor(actor, draftID); err != nil {
		return err
	}
	s.drafts.Discard(draftID)
	return nil
}

// Finalize uploads every new clip and writes the submission. Any upload failure
// aborts the whole finalize and leaves the stored record untouched.
func (s *submissionService) Finalize(ctx context.Context, actor domain.Actor, draftID string) (*domain.Submission, error) {
	// 1. Resolve the draft and guard against a concurrent finalize
	d, err := s.draftFor(actor, draftID)
	if err != nil {
		return nil, err
	}
	if err := d.BeginFinalize(); err != nil {
		return nil, draftError(err)
	}
	defer d.EndFinalize()

	exerciseIDs := d.ExerciseIDs()
	if len(exerciseIDs) == 0 {
		return nil, ErrNoExercises
	}

	// 2. Upload new clips concurrently
	refs, uploaded, err := s.uploadAll(ctx, d)
	if err != nil {
		log.Error().Err(err).Str("draftId", d.ID).Msg("Finalize aborted, upload failed")
		return nil, err
	}

	// 3. Persist
	var sub *domain.Submission
	if d.IsEdit() {
		sub, err = s.overwrite(ctx, actor, d, exerciseIDs, refs)
	} else {
		sub, err = s.create(ctx, actor, d, exerciseIDs, refs)
	}
	if err != nil {
		s.cleanup(ctx, uploaded)
		return nil, err
	}

	// 4. Done with the draft; tell the coach
	s.drafts.Discard(d.ID)
	log.Info().Str("submissionId", sub.ID).Str("traineeId", sub.TraineeID).Int("videos", len(sub.VideoIDs)).Bool("edit", d.IsEdit()).Msg("Submission finalized")

	s.notifyCoach(ctx, sub)
	return sub, nil
}

// uploadAll returns the final videoIds in media order plus the refs minted in this call.
func (s *submissionService) uploadAll(ctx context.Context, d *session.Draft) ([]string, []storage.Ref, error) {
	items := d.Media.Items()

	pending := make([]string, 0, len(items))
	for _, it := range items {
		if !it.Existing {
			pending = append(pending, it.ID)
		}
	}
	d.Progress.BeginBatch(pending)

	refs := make([]string, len(items))
	minted := make([]storage.Ref, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		if it.Existing {
			refs[i] = it.Source.String()
			continue
		}
		i, it := i, it
		g.Go(func() error {
			obj := storage.Object{Content: it.Content, ContentType: it.ContentType, Name: it.Name}
			ref, err := s.store.Store(gctx, obj, func(p float64) {
				d.Progress.Report(it.ID, p)
			})
			if err != nil {
				return err
			}
			d.Progress.Report(it.ID, 100)
			refs[i] = ref.String()
			minted[i] = ref
			return nil
		})
	}

	err := g.Wait()

	var uploaded []storage.Ref
	for _, r := range minted {
		if r.Kind != "" {
			uploaded = append(uploaded, r)
		}
	}
	if err != nil {
		s.cleanup(ctx, uploaded)
		return nil, nil, err
	}
	return refs, uploaded, nil
}

// cleanup removes objects stored for a finalize that did not persist.
func (s *submissionService) cleanup(ctx context.Context, refs []storage.Ref) {
	if len(refs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		_ = s.store.Remove(ctx, ref)
	}
}

func (s *submissionService) create(ctx context.Context, actor domain.Actor, d *session.Draft, exerciseIDs, refs []string) (*domain.Submission, error) {
	sub := &domain.Submission{
		ID:          uuid.NewString(),
		PlanID:      d.PlanID,
		TraineeID:   actor.ID,
		ExerciseIDs: exerciseIDs,
		VideoIDs:    refs,
		Timestamp:   domain.NowMillis(),
		Status:      domain.StatusPending,
		TraineeNote: d.Note(),
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

func (s *submissionService) overwrite(ctx context.Context, actor domain.Actor, d *session.Draft, exerciseIDs, refs []string) (*domain.Submission, error) {
	cur, err := s.getSubmission(ctx, d.EditingID)
	if err != nil {
		return nil, err
	}
	if cur.TraineeID != actor.ID {
		return nil, ErrNotOwner
	}
	if !cur.IsPending() {
		return nil, ErrNotPending
	}
	if cur.Version != d.Version {
		// Changed since the draft was loaded (e.g. a clip was deleted by the coach).
		return nil, repository.ErrConflict
	}

	cur.PlanID = d.PlanID
	cur.ExerciseIDs = exerciseIDs
	cur.VideoIDs = refs
	cur.Timestamp = d.Timestamp
	cur.TraineeNote = d.Note()
	cur.VideosDeleted = false

	if err := s.subRepo.Update(ctx, cur); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return cur, nil
}

func (s *submissionService) notifyCoach(ctx context.Context, sub *domain.Submission) {
	trainee, err := s.userRepo.GetByID(ctx, sub.TraineeID)
	if err != nil || trainee.CoachID == nil {
		return
	}
	content := s.autoMessage(ctx, "New workout submitted", sub)
	if _, err := s.messages.SendAuto(ctx, trainee.ID, *trainee.CoachID, content); err != nil {
		log.Warn().Err(err).Str("submissionId", sub.ID).Msg("Failed to send submission message to coach")
	}
}

func (s *submissionService) autoMessage(ctx context.Context, title string, sub *domain.Submission) string {
	names, err := s.plans.ExerciseNames(ctx, sub.ExerciseIDs)
	if err != nil {
		names = sub.ExerciseIDs
	}
	return fmt.Sprintf("%s\nExercises: %s\nSubmitted at: %s",
		title, strings.Join(names, ", "), time.UnixMilli(sub.Timestamp).UTC().Format(time.RFC1123))
}

// === Submitted records ===

// Review completes a pending submission and credits the trainee.
func (s *submissionService) Review(ctx context.Context, actor domain.Actor, submissionID, feedback string, points int) (*domain.Submission, error) {
	// 1. Validate
	if !actor.IsCoach() && !actor.IsAdmin() {
		return nil, ErrCoachOrAdmin
	}
	if points < 0 {
		return nil, ErrNegativePoints
	}

	// 2. Fetch and authorize
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := checkCoachOf(ctx, s.userRepo, actor, sub.TraineeID); err != nil {
		return nil, err
	}
	if !sub.IsPending() {
		return nil, ErrNotPending
	}

	// 3. Complete with compare-and-swap so two reviewers cannot both award points
	sub.Status = domain.StatusCompleted
	sub.Feedback = feedback
	sub.PointsAwarded = &points
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("complete submission: %w", err)
	}

	// 4. Credit points; the review stands even if this fails
	if err := s.userRepo.AddPoints(ctx, sub.TraineeID, points); err != nil {
		log.Error().Err(err).Str("submissionId", sub.ID).Str("traineeId", sub.TraineeID).Int("points", points).Msg("Failed to credit points")
	}

	// 5. Auto-message the trainee
	content := s.autoMessage(ctx, "Workout reviewed", sub)
	if _, err := s.messages.SendAuto(ctx, actor.ID, sub.TraineeID, content); err != nil {
		log.Warn().Err(err).Str("submissionId", sub.ID).Msg("Failed to send review message to trainee")
	}

	log.Info().Str("submissionId", sub.ID).Str("reviewerId", actor.ID).Int("points", points).Msg("Submission reviewed")
	return sub, nil
}

// DeleteVideo marks every slot holding ref as deleted and removes the stored clip.
// Only the owning trainee or an admin may do this. The record is written first,
// so a failed storage delete only leaves an orphan.
func (s *submissionService) DeleteVideo(ctx context.Context, actor domain.Actor, submissionID, ref string) (*domain.Submission, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if actor.ID != sub.TraineeID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	if ref == "" || ref == domain.DeletedVideo {
		return nil, ErrVideoNotFound
	}

	found := false
	for i, v := range sub.VideoIDs {
		if v == ref {
			sub.VideoIDs[i] = domain.DeletedVideo
			found = true
		}
	}
	if !found {
		return nil, ErrVideoNotFound
	}
	sub.VideosDeleted = true

	if err := s.subRepo.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}

	_ = s.store.Remove(ctx, s.store.Parse(ref))
	log.Info().Str("submissionId", sub.ID).Str("actorId", actor.ID).Msg("Submission video deleted")
	return sub, nil
}

// List returns what the actor may see: everything for admins, their trainees'
// submissions for coaches, their own for trainees. Newest first.
func (s *submissionService) List(ctx context.Context, actor domain.Actor) ([]domain.Submission, error) {
	switch {
	case actor.IsAdmin():
		return s.subRepo.List(ctx, repository.SubmissionFilter{})
	case actor.IsCoach():
		trainees, err := s.userRepo.List(ctx, repository.UserFilter{Role: domain.RoleTrainee, CoachID: actor.ID})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(trainees))
		for _, t := range trainees {
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			return []domain.Submission{}, nil
		}
		return s.subRepo.List(ctx, repository.SubmissionFilter{TraineeIDs: ids})
	default:
		return s.subRepo.List(ctx, repository.SubmissionFilter{TraineeIDs: []string{actor.ID}})
	}
}

func (s *submissionService) Get(ctx context.Context, actor domain.Actor, submissionID string) (*domain.Submission, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewer(ctx, actor, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ResolveVideo returns a playable URL for one slot; deleted slots resolve to "".
func (s *submissionService) ResolveVideo(ctx context.Context, actor domain.Actor, submissionID string, index int) (string, error) {
	sub, err := s.Get(ctx, actor, submissionID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(sub.VideoIDs) {
		return "", ErrVideoIndexInvalid
	}
	return s.store.Resolve(ctx, s.store.Parse(sub.VideoIDs[index]))
}

// === Helpers ===

func (s *submissionService) getSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// checkViewer allows the owner, the owner's coach and admins.
func (s *submissionService) checkViewer(ctx context.Context, actor domain.Actor, sub *domain.Submission) error {
	if actor.ID == sub.TraineeID || actor.IsAdmin() {
		return nil
	}
	if actor.IsCoach() {
		err := checkCoachOf(ctx, s.userRepo, actor, sub.TraineeID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrForbidden) {
			return err
		}
	}
	return ErrSubmissionScope
}

func (s *submissionService) draftFor(actor domain.Actor, draftID string) (*session.Draft, error) {
	d, err := s.drafts.Get(draftID, actor.ID)
	if err != nil {
		return nil, draftError(err)
	}
	return d, nil
}

// draftError maps session errors onto the service error families.
func draftError(err error) error {
	switch {
	case errors.Is(err, session.ErrDraftNotFound):
		return ErrDraftNotFound
	case errors.Is(err, session.ErrDraftBusy):
		return ErrDraftBusy
	case errors.Is(err, session.ErrDraftNotOwned):
		return newError(ErrForbidden, err.Error())
	default:
		return err
	}
}
