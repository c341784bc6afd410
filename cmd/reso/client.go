package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/veridex/reso-app/crypto"
	"github.com/veridex/reso-app/op"
)

// signAndSendOp signs the envelope for one service deployment and posts it.
// The response body is printed raw so scripted callers can parse it.
func signAndSendOp(url, serviceId, keyPath string, o *op.Op) {
	key, err := crypto.LoadKeyFile(keyPath)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	o.Caller = key.Address()
	dat, err := o.SigData([]byte(serviceId))
	if err != nil {
		fmt.Printf("op sign data err:%v\n", err)
		return
	}
	sig, err := key.Sign(dat)
	if err != nil {
		fmt.Printf("sign op err:%v\n", err)
		return
	}
	println("caller:", key.Address().Hex())
	println("sig:", hex.EncodeToString(sig))
	o.Sig = sig
	body, err := op.MarshalOp(o)
	if err != nil {
		fmt.Printf("marshal op err:%v\n", err)
		return
	}
	postJSON(url+"/op", body)
}

func postJSON(url string, body []byte) {
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("post %v err:%v\n", url, err)
		return
	}
	defer res.Body.Close()
	dat, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Printf("read response err:%v\n", err)
		return
	}
	fmt.Printf("%v\n", string(dat))
}
