package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

type friendsResponse struct {
	Message string          `json:"message"`
	Friends []common.Person `json:"friends,omitempty"`
}

// AddFriendHandler befriends :id with the person named in the body.
func AddFriendHandler(c echo.Context) error {
	type addFriendBody struct {
		FriendID string `json:"friend_id" validate:"required"`
	}

	data := new(addFriendBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body")
	}

	if err := app(c).Persons.AddFriend(c.Request().Context(), c.Param("id"), data.FriendID); err != nil {
		return fail(c, "Failed to add friend", err)
	}
	return c.JSON(http.StatusCreated, friendsResponse{Message: "Friendship created successfully"})
}

func RemoveFriendHandler(c echo.Context) error {
	if err := app(c).Persons.RemoveFriend(c.Request().Context(), c.Param("id"), c.Param("fid")); err != nil {
		return fail(c, "Failed to remove friend", err)
	}
	return c.JSON(http.StatusOK, friendsResponse{Message: "Friendship removed successfully"})
}

func ListFriendsHandler(c echo.Context) error {
	friends, err := app(c).Persons.ListFriends(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "Failed to list friends", err)
	}
	return c.JSON(http.StatusOK, friendsResponse{Message: "OK", Friends: friends})
}

func NetworkStatsHandler(c echo.Context) error {
	type networkResponse struct {
		Message string               `json:"message"`
		Network *common.NetworkStats `json:"network,omitempty"`
	}

	stats, err := app(c).Persons.NetworkStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "Failed to get network statistics", err)
	}
	return c.JSON(http.StatusOK, networkResponse{Message: "OK", Network: &stats})
}
