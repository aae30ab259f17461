package filecontract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FileIntegrityMetaData contains all meta data concerning the FileIntegrity contract.
var FileIntegrityMetaData = &bind.MetaData{
	ABI: "[{\"anonymous\":false,\"inputs\":[{\"indexed\":false,\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"}],\"name\":\"FileDeleted\",\"type\":\"event\"},{\"anonymous\":false,\"inputs\":[{\"indexed\":false,\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"},{\"indexed\":false,\"internalType\":\"address\",\"name\":\"sharedWith\",\"type\":\"address\"}],\"name\":\"FileShared\",\"type\":\"event\"},{\"anonymous\":false,\"inputs\":[{\"indexed\":false,\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"},{\"indexed\":false,\"internalType\":\"string\",\"name\":\"filename\",\"type\":\"string\"},{\"indexed\":false,\"internalType\":\"string\",\"name\":\"ipfsCid\",\"type\":\"string\"},{\"indexed\":false,\"internalType\":\"address\",\"name\":\"uploader\",\"type\":\"address\"}],\"name\":\"FileUploaded\",\"type\":\"event\"},{\"inputs\":[{\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"}],\"name\":\"deleteFile\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"},{\"internalType\":\"address\",\"name\":\"user\",\"type\":\"address\"}],\"name\":\"shareFile\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"filename\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"ipfsCid\",\"type\":\"string\"}],\"name\":\"uploadFile\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"string\",\"name\":\"fileHash\",\"type\":\"string\"}],\"name\":\"verifyFile\",\"outputs\":[{\"internalType\":\"bool\",\"name\":\"\",\"type\":\"bool\"},{\"internalType\":\"string\",\"name\":\"\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"\",\"type\":\"string\"},{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]",
}

// FileIntegrity is a Go binding around the FileIntegrity contract.
type FileIntegrity struct {
	FileIntegrityCaller     // Read-only binding to the contract
	FileIntegrityTransactor // Write-only binding to the contract
	FileIntegrityFilterer   // Log parsing for contract events
}

// FileIntegrityCaller is a read-only binding around the FileIntegrity contract.
type FileIntegrityCaller struct {
	contract *bind.BoundContract
}

// FileIntegrityTransactor is a write-only binding around the FileIntegrity contract.
type FileIntegrityTransactor struct {
	contract *bind.BoundContract
}

// FileIntegrityFilterer decodes FileIntegrity events from receipt logs.
type FileIntegrityFilterer struct {
	contract *bind.BoundContract
}

// NewFileIntegrity creates a new instance of FileIntegrity, bound to a specific deployed contract.
func NewFileIntegrity(address common.Address, backend bind.ContractBackend) (*FileIntegrity, error) {
	contract, err := bindFileIntegrity(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &FileIntegrity{
		FileIntegrityCaller:     FileIntegrityCaller{contract: contract},
		FileIntegrityTransactor: FileIntegrityTransactor{contract: contract},
		FileIntegrityFilterer:   FileIntegrityFilterer{contract: contract},
	}, nil
}

func bindFileIntegrity(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := FileIntegrityMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// VerifyFile is a free data retrieval call binding the contract method verifyFile.
//
// Solidity: function verifyFile(string fileHash) view returns(bool, string, string, address, uint256)
func (_FileIntegrity *FileIntegrityCaller) VerifyFile(opts *bind.CallOpts, fileHash string) (bool, string, string, common.Address, *big.Int, error) {
	var out []interface{}
	err := _FileIntegrity.contract.Call(opts, &out, "verifyFile", fileHash)

	if err != nil {
		return *new(bool), *new(string), *new(string), *new(common.Address), *new(*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(bool)).(*bool)
	out1 := *abi.ConvertType(out[1], new(string)).(*string)
	out2 := *abi.ConvertType(out[2], new(string)).(*string)
	out3 := *abi.ConvertType(out[3], new(common.Address)).(*common.Address)
	out4 := *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)

	return out0, out1, out2, out3, out4, err
}

// UploadFile is a paid mutator transaction binding the contract method uploadFile.
//
// Solidity: function uploadFile(string fileHash, string filename, string ipfsCid) returns()
func (_FileIntegrity *FileIntegrityTransactor) UploadFile(opts *bind.TransactOpts, fileHash string, filename string, ipfsCid string) (*types.Transaction, error) {
	return _FileIntegrity.contract.Transact(opts, "uploadFile", fileHash, filename, ipfsCid)
}

// ShareFile is a paid mutator transaction binding the contract method shareFile.
//
// Solidity: function shareFile(string fileHash, address user) returns()
func (_FileIntegrity *FileIntegrityTransactor) ShareFile(opts *bind.TransactOpts, fileHash string, user common.Address) (*types.Transaction, error) {
	return _FileIntegrity.contract.Transact(opts, "shareFile", fileHash, user)
}

// DeleteFile is a paid mutator transaction binding the contract method deleteFile.
//
// Solidity: function deleteFile(string fileHash) returns()
func (_FileIntegrity *FileIntegrityTransactor) DeleteFile(opts *bind.TransactOpts, fileHash string) (*types.Transaction, error) {
	return _FileIntegrity.contract.Transact(opts, "deleteFile", fileHash)
}

// FileIntegrityFileUploaded represents a FileUploaded event raised by the FileIntegrity contract.
type FileIntegrityFileUploaded struct {
	FileHash string
	Filename string
	IpfsCid  string
	Uploader common.Address
	Raw      types.Log // Blockchain specific contextual infos
}

// FileIntegrityFileShared represents a FileShared event raised by the FileIntegrity contract.
type FileIntegrityFileShared struct {
	FileHash   string
	SharedWith common.Address
	Raw        types.Log
}

// FileIntegrityFileDeleted represents a FileDeleted event raised by the FileIntegrity contract.
type FileIntegrityFileDeleted struct {
	FileHash string
	Raw      types.Log
}

// ParseFileUploaded is a log parse operation binding the contract event FileUploaded.
//
// Solidity: event FileUploaded(string fileHash, string filename, string ipfsCid, address uploader)
func (_FileIntegrity *FileIntegrityFilterer) ParseFileUploaded(log types.Log) (*FileIntegrityFileUploaded, error) {
	event := new(FileIntegrityFileUploaded)
	if err := _FileIntegrity.contract.UnpackLog(event, "FileUploaded", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseFileShared is a log parse operation binding the contract event FileShared.
//
// Solidity: event FileShared(string fileHash, address sharedWith)
func (_FileIntegrity *FileIntegrityFilterer) ParseFileShared(log types.Log) (*FileIntegrityFileShared, error) {
	event := new(FileIntegrityFileShared)
	if err := _FileIntegrity.contract.UnpackLog(event, "FileShared", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseFileDeleted is a log parse operation binding the contract event FileDeleted.
//
// Solidity: event FileDeleted(string fileHash)
func (_FileIntegrity *FileIntegrityFilterer) ParseFileDeleted(log types.Log) (*FileIntegrityFileDeleted, error) {
	event := new(FileIntegrityFileDeleted)
	if err := _FileIntegrity.contract.UnpackLog(event, "FileDeleted", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
