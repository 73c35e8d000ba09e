package lists

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/storage"
	"cinepwa/proj/internal/utils"
)

type ListsStorage interface {
	Create(ctx context.Context, name, ownerID string) (*models.List, error)
	Get(ctx context.Context, id string) (*models.List, error)
	ListForMember(ctx context.Context, userID string, f filters.Filters) ([]models.List, error)
	Rename(ctx context.Context, id, name string) (*models.List, error)
	Delete(ctx context.Context, id string) error
}

type MembersStorage interface {
	Get(ctx context.Context, listID, userID string) (*models.ListMember, error)
	List(ctx context.Context, listID string) ([]models.ListMember, error)
	Insert(ctx context.Context, member models.ListMember) (bool, error)
	SetName(ctx context.Context, listID, userID, name string) error
	Delete(ctx context.Context, listID, userID string) error
}

type ItemsStorage interface {
	Insert(ctx context.Context, listID string, ref models.ContentRef, addedBy string) (*models.ListItem, error)
	Get(ctx context.Context, id string) (*models.ListItem, error)
	List(ctx context.Context, listID string) ([]models.ListItem, error)
	Delete(ctx context.Context, id string) error
	ForContent(ctx context.Context, userID string, contentID int, contentType models.MediaType) ([]models.ListItem, error)
}

type NameLookup interface {
	GetListName(ctx context.Context, listID string) (string, error)
}

type UserGetter interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type Storage struct {
	Lists   ListsStorage
	Members MembersStorage
	Items   ItemsStorage
	Names   NameLookup
	Users   UserGetter
}

type ListService struct {
	log     *slog.Logger
	storage Storage
	baseURL string
}

// New builds the service. baseURL prefixes the invite links it hands out.
func New(log *slog.Logger, storage Storage, baseURL string) *ListService {
	return &ListService{
		log:     log,
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// membership fails closed: a caller without a membership row gets ErrNotMember.
func (s *ListService) membership(ctx context.Context, listID, userID string) (*models.List, *models.ListMember, error) {
	list, err := s.storage.Lists.Get(ctx, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrListNotFound
		}
		return nil, nil, err
	}
	member, err := s.storage.Members.Get(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return list, nil, ErrNotMember
		}
		return nil, nil, err
	}
	list.Role = member.Role
	return list, member, nil
}

func (s *ListService) profileName(ctx context.Context, userID string) string {
	user, err := s.storage.Users.Get(ctx, userID)
	if err != nil {
		return ""
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return utils.EmailLocalPart(user.Email)
}

func (s *ListService) CreateList(ctx context.Context, name string) (*models.List, error) {
	const op = "lists.ListService.CreateList"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID, "name", name)
	list, err := s.storage.Lists.Create(ctx, name, userID)
	if err != nil {
		log.Error("failed to create list", "errMsg", err.Error())
		return nil, err
	}
	if memberName := s.profileName(ctx, userID); memberName != "" {
		if err := s.storage.Members.SetName(ctx, list.ID, userID, memberName); err != nil {
			log.Warn("failed to backfill owner member name", "errMsg", err.Error())
		}
	}
	log.Info("list created", "list_id", list.ID)
	return list, nil
}

func (s *ListService) ListLists(ctx context.Context, f filters.Filters) ([]models.List, error) {
	const op = "lists.ListService.ListLists"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := s.storage.Lists.ListForMember(ctx, userID, f)
	if err != nil {
		s.log.Error("failed to fetch lists", "op", op, "user_id", userID, "errMsg", err.Error())
		return nil, err
	}
	return lists, nil
}

func (s *ListService) GetListDetails(ctx context.Context, listID string) (*models.ListDetails, error) {
	const op = "lists.ListService.GetListDetails"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID, "list_id", listID)
	list, _, err := s.membership(ctx, listID, userID)
	if err != nil {
		log.Info("list details denied", "reason", err.Error())
		return nil, err
	}
	members, err := s.storage.Members.List(ctx, listID)
	if err != nil {
		log.Error("failed to fetch members", "errMsg", err.Error())
		return nil, err
	}
	items, err := s.storage.Items.List(ctx, listID)
	if err != nil {
		log.Error("failed to fetch items", "errMsg", err.Error())
		return nil, err
	}
	return &models.ListDetails{List: *list, Items: items, Members: members}, nil
}

// MemberRole returns the caller's role in the list without loading its items
// or roster.
func (s *ListService) MemberRole(ctx context.Context, listID string) (models.Role, error) {
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return "", err
	}
	_, member, err := s.membership(ctx, listID, userID)
	if err != nil {
		s.log.Info("membership check denied", "op", "lists.ListService.MemberRole", "list_id", listID, "user_id", userID, "reason", err.Error())
		return "", err
	}
	return member.Role, nil
}

func (s *ListService) RenameList(ctx context.Context, listID, name string) (*models.List, error) {
	const op = "lists.ListService.RenameList"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID, "list_id", listID)
	_, member, err := s.membership(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		log.Warn("rename denied", "role", member.Role)
		return nil, ErrForbidden
	}
	list, err := s.storage.Lists.Rename(ctx, listID, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrListNotFound
		}
		log.Error("failed to rename list", "errMsg", err.Error())
		return nil, err
	}
	list.Role = member.Role
	return list, nil
}

func (s *ListService) DeleteList(ctx context.Context, listID string) error {
	const op = "lists.ListService.DeleteList"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	log := s.log.With("op", op, "user_id", userID, "list_id", listID)
	_, member, err := s.membership(ctx, listID, userID)
	if err != nil {
		return err
	}
	if !member.Role.CanManage() {
		log.Warn("delete denied", "role", member.Role)
		return ErrForbidden
	}
	if err := s.storage.Lists.Delete(ctx, listID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrListNotFound
		}
		log.Error("failed to delete list", "errMsg", err.Error())
		return err
	}
	log.Info("list deleted")
	return nil
}

// AddItem does not check for an existing item with the same content.
func (s *ListService) AddItem(ctx context.Context, listID string, ref models.ContentRef) (*models.ListItem, error) {
	const op = "lists.ListService.AddItem"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	log := s.log.With("op", op, "user_id", userID, "list_id", listID, "content_id", ref.ID)
	_, member, err := s.membership(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanEditItems() {
		log.Warn("add item denied", "role", member.Role)
		return nil, ErrForbidden
	}
	item, err := s.storage.Items.Insert(ctx, listID, ref, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrListNotFound
		}
		log.Error("failed to add item", "errMsg", err.Error())
		return nil, err
	}
	return item, nil
}

func (s *ListService) RemoveItem(ctx context.Context, itemID string) error {
	const op = "lists.ListService.RemoveItem"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	log := s.log.With("op", op, "user_id", userID, "item_id", itemID)
	item, err := s.storage.Items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	_, member, err := s.membership(ctx, item.ListID, userID)
	if err != nil {
		return err
	}
	if !member.Role.CanEditItems() {
		log.Warn("remove item denied", "role", member.Role)
		return ErrForbidden
	}
	if err := s.storage.Items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrItemNotFound
		}
		log.Error("failed to remove item", "errMsg", err.Error())
		return err
	}
	return nil
}

// JoinList adds the caller with the invite role. Joining a list the caller
// already belongs to changes nothing and returns the existing membership.
func (s *ListService) JoinList(ctx context.Context, listID, memberName, role string) (*models.ListMember, error) {
	const op = "lists.ListService.JoinList"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	inviteRole := models.ParseInviteRole(role)
	log := s.log.With("op", op, "user_id", userID, "list_id", listID, "role", inviteRole)
	memberName = strings.TrimSpace(memberName)
	if memberName == "" {
		memberName = s.profileName(ctx, userID)
	}
	inserted, err := s.storage.Members.Insert(ctx, models.ListMember{
		ListID:     listID,
		UserID:     userID,
		Role:       inviteRole,
		MemberName: memberName,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("join of unknown list")
			return nil, ErrListNotFound
		}
		log.Error("failed to join list", "errMsg", err.Error())
		return nil, err
	}
	if !inserted {
		log.Info("already a member")
	} else {
		log.Info("joined list")
	}
	member, err := s.storage.Members.Get(ctx, listID, userID)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember lets the owner remove any other member and any member leave.
// The owner membership is never removed.
func (s *ListService) RemoveMember(ctx context.Context, listID, memberID string) error {
	const op = "lists.ListService.RemoveMember"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return err
	}
	log := s.log.With("op", op, "user_id", userID, "list_id", listID, "member_id", memberID)
	_, caller, err := s.membership(ctx, listID, userID)
	if err != nil {
		return err
	}
	if memberID != userID && !caller.Role.CanManage() {
		log.Warn("remove member denied", "role", caller.Role)
		return ErrForbidden
	}
	target, err := s.storage.Members.Get(ctx, listID, memberID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if target.Role == models.RoleOwner {
		log.Warn("owner membership cannot be removed")
		return ErrForbidden
	}
	if err := s.storage.Members.Delete(ctx, listID, memberID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMemberNotFound
		}
		log.Error("failed to remove member", "errMsg", err.Error())
		return err
	}
	log.Info("member removed")
	return nil
}

// ShareURL builds the invite link for role. Roles other than editor become viewer.
func (s *ListService) ShareURL(listID string, role string) string {
	q := url.Values{"role": {string(models.ParseInviteRole(role))}}
	return fmt.Sprintf("%s/lists/%s/join?%s", s.baseURL, url.PathEscape(listID), q.Encode())
}

// GetListName needs no membership and reveals only the name.
func (s *ListService) GetListName(ctx context.Context, listID string) (string, error) {
	const op = "lists.ListService.GetListName"
	name, err := s.storage.Names.GetListName(ctx, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Info("list not found", "op", op, "list_id", listID)
			return "", ErrListNotFound
		}
		return "", err
	}
	return name, nil
}

// ListsContainingContent maps every caller list holding the title to the id of
// its earliest matching item.
func (s *ListService) ListsContainingContent(ctx context.Context, contentID int, contentType models.MediaType) (map[string]string, error) {
	const op = "lists.ListService.ListsContainingContent"
	userID, err := auth.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.storage.Items.ForContent(ctx, userID, contentID, contentType)
	if err != nil {
		s.log.Error("failed to look up items", "op", op, "user_id", userID, "errMsg", err.Error())
		return nil, err
	}
	containing := make(map[string]string, len(items))
	for _, item := range items {
		if _, ok := containing[item.ListID]; !ok {
			containing[item.ListID] = item.ID
		}
	}
	return containing, nil
}
