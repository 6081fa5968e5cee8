package model

import (
	"errors"
	"fmt"
)

// OwnerKind discrimina a quién pertenece un cart o wishlist.
type OwnerKind string

const (
	OwnerUser  OwnerKind = "user"
	OwnerGuest OwnerKind = "guest"
)

var ErrInvalidOwner = errors.New("cart owner must be exactly one of user or guest")

// Owner es la identidad dueña de un cart/wishlist: un usuario o un invitado, nunca
// ambos. Solo se construye con OwnedByUser u OwnedByGuest.
type Owner struct {
	Kind OwnerKind `bson:"kind" json:"kind"`
	ID   string    `bson:"id" json:"id"`
}

func OwnedByUser(id string) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

func OwnedByGuest(id string) Owner {
	return Owner{Kind: OwnerGuest, ID: id}
}

func (o Owner) Validate() error {
	if o.ID == "" {
		return ErrInvalidOwner
	}
	switch o.Kind {
	case OwnerUser, OwnerGuest:
		return nil
	default:
		return ErrInvalidOwner
	}
}

func (o Owner) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.ID)
}
