package main

import (
	"net/http"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/decoder"
	"cinepwa/proj/internal/services/lists"
)

type listNameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (app *Application) listLists(w http.ResponseWriter, r *http.Request) {
	var q struct {
		Sort string `json:"sort" validate:"omitempty,list_sort"`
	}
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if errs := app.validate(q); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	f := filters.ForLists(q.Sort)
	if err := f.Validate(); err != nil {
		app.Http.UnprocessableEntity(w, r, map[string]string{"sort": err.Error()})
		return
	}
	userLists, err := app.Services.Lists.ListLists(r.Context(), f)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"lists": userLists}, "")
}

func (app *Application) createList(w http.ResponseWriter, r *http.Request) {
	var req listNameRequest
	if !app.readValidJSON(w, r, &req) {
		return
	}
	list, err := app.Services.Lists.CreateList(r.Context(), req.Name)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"list": list}, "")
}

func (app *Application) getListDetails(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	details, err := app.Services.Lists.GetListDetails(r.Context(), listID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"list": details}, "")
}

func (app *Application) renameList(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	var req listNameRequest
	if !app.readValidJSON(w, r, &req) {
		return
	}
	list, err := app.Services.Lists.RenameList(r.Context(), listID, req.Name)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"list": list}, "")
}

func (app *Application) deleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	if err := app.Services.Lists.DeleteList(r.Context(), listID); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getShareURL(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	// Only members can hand out invites.
	if _, err := app.Services.Lists.MemberRole(r.Context(), listID); err != nil {
		app.serviceError(w, r, err)
		return
	}
	role := models.ParseInviteRole(r.URL.Query().Get("role"))
	app.Http.Ok(w, r, envelop{
		"url":  app.Services.Lists.ShareURL(listID, string(role)),
		"role": role,
	}, "")
}

func (app *Application) addListItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	var req models.ContentRef
	if !app.readValidJSON(w, r, &req) {
		return
	}
	item, err := app.Services.Lists.AddItem(r.Context(), listID, req)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"item": item}, "")
}

func (app *Application) removeListItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := app.extractUUIDParam(w, r, "itemID", lists.ErrItemNotFound)
	if !ok {
		return
	}
	if err := app.Services.Lists.RemoveItem(r.Context(), itemID); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) joinList(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	var req struct {
		MemberName string `json:"member_name" validate:"max=50"`
		Role       string `json:"role"`
	}
	if !app.readValidJSON(w, r, &req) {
		return
	}
	member, err := app.Services.Lists.JoinList(r.Context(), listID, req.MemberName, req.Role)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"member": member}, "")
}

func (app *Application) removeListMember(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	userID, ok := app.extractUUIDParam(w, r, "userID", lists.ErrMemberNotFound)
	if !ok {
		return
	}
	err := app.Services.Lists.RemoveMember(r.Context(), listID, userID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listsContainingContent(w http.ResponseWriter, r *http.Request) {
	var q struct {
		ContentID   int    `json:"content_id" validate:"required,gt=0"`
		ContentType string `json:"content_type" validate:"required,content_type"`
	}
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if errs := app.validate(q); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	containing, err := app.Services.Lists.ListsContainingContent(r.Context(), q.ContentID, models.MediaType(q.ContentType))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"lists": containing}, "")
}

func (app *Application) getListName(w http.ResponseWriter, r *http.Request) {
	listID, ok := app.extractUUIDParam(w, r, "id", lists.ErrListNotFound)
	if !ok {
		return
	}
	name, err := app.Services.Lists.GetListName(r.Context(), listID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"name": name}, "")
}
